package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		message    string
	}{
		{"異常系: 404", http.StatusNotFound, MsgRouteNotFound},
		{"異常系: 500", http.StatusInternalServerError, MsgFailedToProcess},
		{"異常系: 400", http.StatusBadRequest, MsgInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.statusCode, tt.message)

			if rec.Code != tt.statusCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.statusCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %s, want application/json", ct)
			}

			var body map[string]interface{}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if len(body) != 1 || body["error"] != tt.message {
				t.Errorf("body = %v, want {error: %s}", body, tt.message)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if got := rec.Body.String(); got != "{\"error\":\"Route not found\"}\n" {
		t.Errorf("body = %q", got)
	}
}
