package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"ocr-classify-api/internal/modules/classify/domain"
	"ocr-classify-api/internal/presentation/http/response"
)

// ClassifyUseCaseInterface 文字認識ユースケースのインターフェース
type ClassifyUseCaseInterface interface {
	Classify(ctx context.Context, imageData []byte) (*domain.Classification, error)
	GetProviderName() string
}

// Options ClassifyHandlerの動作設定
type Options struct {
	// RejectInvalidInput trueの場合、入力エラーを400で返す（falseは従来通り500）
	RejectInvalidInput bool
	MaxBodyBytes       int64
	CacheEnabled       bool
}

// ClassifyHandler POST /classify のハンドラー
type ClassifyHandler struct {
	classifyUseCase ClassifyUseCaseInterface
	opts            Options
}

// NewClassifyHandler 新しいClassifyHandlerを作成
func NewClassifyHandler(classifyUseCase ClassifyUseCaseInterface, opts Options) *ClassifyHandler {
	return &ClassifyHandler{
		classifyUseCase: classifyUseCase,
		opts:            opts,
	}
}

// ClassifyRequest リクエストボディ
type ClassifyRequest struct {
	Image string `json:"image"`
}

// ClassifyResponse レスポンスボディ
type ClassifyResponse struct {
	Lines []string `json:"lines"`
}

// HandleClassify base64画像を受け取り検出した行を返す
func (h *ClassifyHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	// POST以外は未登録ルートと同じ扱い
	if r.Method != http.MethodPost {
		response.NotFound(w, r)
		return
	}

	slog.Info("Received request on /classify")

	body := r.Body
	if h.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	}

	req, err := decodeClassifyRequest(body)
	if err != nil {
		h.handleBodyError(w, err)
		return
	}

	imageData, err := domain.DecodeImage(req.Image)
	if err != nil {
		h.handleFailure(w, err)
		return
	}

	result, err := h.classifyUseCase.Classify(r.Context(), imageData)
	if err != nil {
		h.handleFailure(w, err)
		return
	}

	if h.opts.CacheEnabled {
		if result.Cached {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
	}

	response.JSON(w, http.StatusOK, ClassifyResponse{Lines: result.Lines})
}

// decodeClassifyRequest ボディ全体を1つのJSON値として読む
// 空のボディは {} と同じく image 未指定として扱う
func decodeClassifyRequest(body io.Reader) (ClassifyRequest, error) {
	var req ClassifyRequest

	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return ClassifyRequest{}, nil
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return ClassifyRequest{}, &domain.DecodeError{Reason: "image field is not a string", Err: err}
		}
		return ClassifyRequest{}, err
	}

	// 末尾に余分なデータがあれば構文エラー
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return ClassifyRequest{}, err
		}
		return ClassifyRequest{}, fmt.Errorf("unexpected data after JSON body at offset %d", dec.InputOffset())
	}

	return req, nil
}

// handleBodyError 読み取れないボディ
// image の型違いは入力エラー、それ以外は構文エラーとして扱う
func (h *ClassifyHandler) handleBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidImage) {
		h.handleFailure(w, err)
		return
	}

	slog.Error("Failed to parse request body", "error", err)

	var maxBytesErr *http.MaxBytesError
	switch {
	case !h.opts.RejectInvalidInput:
		response.Error(w, http.StatusInternalServerError, response.MsgInternalServerError)
	case errors.As(err, &maxBytesErr):
		response.Error(w, http.StatusRequestEntityTooLarge, response.MsgRequestTooLarge)
	default:
		response.Error(w, http.StatusBadRequest, response.MsgInvalidRequestBody)
	}
}

// handleFailure デコード・認識の失敗（詳細はログのみ）
func (h *ClassifyHandler) handleFailure(w http.ResponseWriter, err error) {
	slog.Error("Error processing image", "error", err)

	if h.opts.RejectInvalidInput && errors.Is(err, domain.ErrInvalidImage) {
		response.Error(w, http.StatusBadRequest, response.MsgInvalidImage)
		return
	}
	response.Error(w, http.StatusInternalServerError, response.MsgFailedToProcess)
}
