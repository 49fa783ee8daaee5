package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// クライアントに返すエラーメッセージ（内部エラーの詳細は返さない）
const (
	MsgRouteNotFound       = "Route not found"
	MsgInternalServerError = "Internal Server Error"
	MsgFailedToProcess     = "Failed to process image"
	MsgInvalidImage        = "Invalid image payload"
	MsgInvalidRequestBody  = "Invalid request body"
	MsgRequestTooLarge     = "Request body too large"
	MsgRecordNotFound      = "Classification not found"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON JSONレスポンスを送信
func JSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// Error エラーレスポンスを送信
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, ErrorResponse{Error: message})
}

// NotFound 未登録ルートのハンドラー
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusNotFound, MsgRouteNotFound)
}
