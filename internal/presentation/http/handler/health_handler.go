package handler

import (
	"net/http"

	"ocr-classify-api/internal/presentation/http/response"
)

// Version APIのバージョン
const Version = "1.0.0"

// ProviderNamer 利用中のOCRプロバイダー名を返す
type ProviderNamer interface {
	GetProviderName() string
}

// HealthHandler ヘルスチェックのハンドラー
type HealthHandler struct {
	provider ProviderNamer
}

// NewHealthHandler 新しいHealthHandlerを作成
func NewHealthHandler(provider ProviderNamer) *HealthHandler {
	return &HealthHandler{provider: provider}
}

// HealthResponse ヘルスチェックのレスポンス
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Provider string `json:"provider,omitempty"`
}

// ServeHTTP ヘルスチェックを処理
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	resp := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	if h.provider != nil {
		resp.Provider = h.provider.GetProviderName()
	}

	response.JSON(w, http.StatusOK, resp)
}
