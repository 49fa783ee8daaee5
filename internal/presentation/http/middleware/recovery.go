package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"ocr-classify-api/internal/presentation/http/response"
)

// headerTracker ヘッダー送信済みかを記録するラッパー
type headerTracker struct {
	http.ResponseWriter
	wroteHeader bool
}

func (t *headerTracker) WriteHeader(code int) {
	t.wroteHeader = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *headerTracker) Write(b []byte) (int, error) {
	t.wroteHeader = true
	return t.ResponseWriter.Write(b)
}

// Recovery パニックリカバリーミドルウェア
// パニックの内容はログにのみ出し、クライアントには汎用メッセージを返す
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &headerTracker{ResponseWriter: w}

		defer func() {
			err := recover()
			if err == nil {
				return
			}
			// net/http が接続を中断するための値はそのまま伝える
			if err == http.ErrAbortHandler {
				panic(err)
			}

			slog.Error("Panic recovered",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			// レスポンス送信後は書き換えられない
			if tw.wroteHeader {
				return
			}
			response.Error(w, http.StatusInternalServerError, response.MsgInternalServerError)
		}()

		next.ServeHTTP(tw, r)
	})
}
