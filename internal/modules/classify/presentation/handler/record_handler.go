package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ocr-classify-api/internal/modules/classify/domain"
	"ocr-classify-api/internal/presentation/http/response"
)

// RecordFinder 認識履歴の取得
type RecordFinder interface {
	FindRecord(ctx context.Context, id string) (*domain.ClassificationRecord, error)
}

// RecordHandler GET /classifications/{id} のハンドラー
type RecordHandler struct {
	finder RecordFinder
}

// NewRecordHandler 新しいRecordHandlerを作成
func NewRecordHandler(finder RecordFinder) *RecordHandler {
	return &RecordHandler{finder: finder}
}

// RecordResponse 認識履歴のレスポンス
type RecordResponse struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ImageSHA256 string    `json:"image_sha256"`
	ImageSize   int       `json:"image_size"`
	Lines       []string  `json:"lines"`
	CreatedAt   time.Time `json:"created_at"`
}

// HandleGetRecord 保存済みの認識結果を返す
func (h *RecordHandler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, err := h.finder.FindRecord(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound), errors.Is(err, domain.ErrRecordsDisabled):
		response.Error(w, http.StatusNotFound, response.MsgRecordNotFound)
		return
	case err != nil:
		slog.Error("Failed to find classification record", "id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, response.MsgInternalServerError)
		return
	}

	lines := record.Lines
	if lines == nil {
		lines = []string{}
	}

	response.JSON(w, http.StatusOK, RecordResponse{
		ID:          record.ID,
		Provider:    record.Provider,
		ImageSHA256: record.ImageSHA256,
		ImageSize:   record.ImageSize,
		Lines:       lines,
		CreatedAt:   record.CreatedAt,
	})
}
