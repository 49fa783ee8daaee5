package router

import (
	"net/http"

	"ocr-classify-api/internal/presentation/di"
	"ocr-classify-api/internal/presentation/http/middleware"
	"ocr-classify-api/internal/presentation/http/response"
)

// NewRouter 新しいルーターを作成
func NewRouter(container *di.Container) http.Handler {
	mux := http.NewServeMux()

	// 文字認識 API（末尾スラッシュ付きも受け付ける）
	classify := container.ClassifyHandler().HandleClassify
	mux.HandleFunc("/classify", classify)
	mux.HandleFunc("/classify/{$}", classify)

	// 認識履歴
	if recordHandler := container.RecordHandler(); recordHandler != nil {
		mux.HandleFunc("GET /classifications/{id}", recordHandler.HandleGetRecord)
	}

	// Health check
	mux.Handle("/health", container.HealthHandler())

	// 未登録ルートはすべて 404
	mux.HandleFunc("/", response.NotFound)

	// ミドルウェアの適用
	var h http.Handler = mux
	h = middleware.Recovery(h)
	h = middleware.LoggerWithHealthCheck(h)
	h = middleware.CORS(h)

	return h
}
