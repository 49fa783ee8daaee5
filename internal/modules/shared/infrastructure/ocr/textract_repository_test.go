package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/aws/smithy-go"

	"ocr-classify-api/internal/config"
	"ocr-classify-api/internal/modules/classify/domain"
)

// MockTextractAPI Textractクライアントのモック
type MockTextractAPI struct {
	DetectDocumentTextFunc func(ctx context.Context, params *textract.DetectDocumentTextInput) (*textract.DetectDocumentTextOutput, error)
	calls                  int
}

func (m *MockTextractAPI) DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error) {
	m.calls++
	if m.DetectDocumentTextFunc != nil {
		return m.DetectDocumentTextFunc(ctx, params)
	}
	return &textract.DetectDocumentTextOutput{}, nil
}

func TestTextractRepository_DetectText(t *testing.T) {
	document := []byte("image-bytes")

	mock := &MockTextractAPI{
		DetectDocumentTextFunc: func(ctx context.Context, params *textract.DetectDocumentTextInput) (*textract.DetectDocumentTextOutput, error) {
			if params.Document == nil || string(params.Document.Bytes) != string(document) {
				t.Errorf("Document.Bytes = %v, want %v", params.Document, document)
			}
			return &textract.DetectDocumentTextOutput{
				Blocks: []types.Block{
					{BlockType: types.BlockTypePage, Page: aws.Int32(1)},
					{BlockType: types.BlockTypeLine, Text: aws.String("A"), Confidence: aws.Float32(99.5), Page: aws.Int32(1)},
					{BlockType: types.BlockTypeWord, Text: aws.String("x"), Page: aws.Int32(1)},
					{BlockType: types.BlockTypeLine, Text: aws.String("B"), Page: aws.Int32(1)},
				},
			}, nil
		},
	}

	repo := NewTextractRepository(mock, &config.AWSConfig{})
	blocks, err := repo.DetectText(context.Background(), document)
	if err != nil {
		t.Fatalf("DetectText() error = %v", err)
	}

	want := []domain.Block{
		{Type: domain.BlockTypePage, Page: 1},
		{Type: domain.BlockTypeLine, Text: "A", Confidence: 99.5, Page: 1},
		{Type: domain.BlockTypeWord, Text: "x", Page: 1},
		{Type: domain.BlockTypeLine, Text: "B", Page: 1},
	}
	if !reflect.DeepEqual(blocks, want) {
		t.Errorf("DetectText() = %+v, want %+v", blocks, want)
	}

	if got := domain.ExtractLines(blocks); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("ExtractLines() = %v, want [A B]", got)
	}

	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
}

func TestTextractRepository_DetectText_Error(t *testing.T) {
	apiErr := &smithy.GenericAPIError{
		Code:    "AccessDeniedException",
		Message: "not authorized",
		Fault:   smithy.FaultClient,
	}

	mock := &MockTextractAPI{
		DetectDocumentTextFunc: func(ctx context.Context, params *textract.DetectDocumentTextInput) (*textract.DetectDocumentTextOutput, error) {
			return nil, apiErr
		},
	}

	repo := NewTextractRepository(mock, &config.AWSConfig{})
	blocks, err := repo.DetectText(context.Background(), []byte("x"))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if blocks != nil {
		t.Errorf("Expected nil blocks, got %v", blocks)
	}

	// 元のエラーを取り出せること
	var got smithy.APIError
	if !errors.As(err, &got) {
		t.Fatalf("Expected smithy.APIError, got %T", err)
	}
	if got.ErrorCode() != "AccessDeniedException" {
		t.Errorf("ErrorCode() = %s, want AccessDeniedException", got.ErrorCode())
	}

	// リトライしない
	if mock.calls != 1 {
		t.Errorf("calls = %d, want 1", mock.calls)
	}
}

func TestTextractRepository_DetectText_Timeout(t *testing.T) {
	mock := &MockTextractAPI{
		DetectDocumentTextFunc: func(ctx context.Context, params *textract.DetectDocumentTextInput) (*textract.DetectDocumentTextOutput, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("Expected context deadline to be set")
			}
			return &textract.DetectDocumentTextOutput{}, nil
		},
	}

	repo := NewTextractRepository(mock, &config.AWSConfig{TimeoutSeconds: 5})
	if _, err := repo.DetectText(context.Background(), []byte("x")); err != nil {
		t.Fatalf("DetectText() error = %v", err)
	}
}

func TestTextractRepository_DetectText_NoTimeoutByDefault(t *testing.T) {
	mock := &MockTextractAPI{
		DetectDocumentTextFunc: func(ctx context.Context, params *textract.DetectDocumentTextInput) (*textract.DetectDocumentTextOutput, error) {
			if _, ok := ctx.Deadline(); ok {
				t.Error("Expected no context deadline")
			}
			return &textract.DetectDocumentTextOutput{}, nil
		},
	}

	repo := NewTextractRepository(mock, &config.AWSConfig{})
	blocks, err := repo.DetectText(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("DetectText() error = %v", err)
	}
	if blocks == nil || len(blocks) != 0 {
		t.Errorf("Expected empty non-nil blocks, got %v", blocks)
	}
}

func TestTextractRepository_ProviderName(t *testing.T) {
	repo := NewTextractRepository(&MockTextractAPI{}, &config.AWSConfig{})
	if repo.ProviderName() != "AWS Textract" {
		t.Errorf("ProviderName() = %s, want AWS Textract", repo.ProviderName())
	}
}

// newTextractServer awsJson1_1でTextractを模倣するモックサーバー
func newTextractServer(t *testing.T, hits *int32, handler func(w http.ResponseWriter, document []byte)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)

		if got := r.Header.Get("X-Amz-Target"); got != "Textract.DetectDocumentText" {
			t.Errorf("X-Amz-Target = %s, want Textract.DetectDocumentText", got)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("Failed to read body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var request struct {
			Document struct {
				Bytes string `json:"Bytes"`
			} `json:"Document"`
		}
		if err := json.Unmarshal(body, &request); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		document, err := base64.StdEncoding.DecodeString(request.Document.Bytes)
		if err != nil {
			t.Errorf("Failed to decode document: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		handler(w, document)
	}))
}

func newTestAWSConfig(endpoint string, maxAttempts int) *config.AWSConfig {
	return &config.AWSConfig{
		Region:          "us-east-1",
		AccessKeyID:     "AKIDTEST",
		SecretAccessKey: "secret",
		Endpoint:        endpoint,
		MaxAttempts:     maxAttempts,
	}
}

func TestNewTextractClient_MockServer(t *testing.T) {
	t.Run("正常系_行の抽出", func(t *testing.T) {
		var hits int32
		server := newTextractServer(t, &hits, func(w http.ResponseWriter, document []byte) {
			if string(document) != "png-bytes" {
				t.Errorf("document = %s, want png-bytes", document)
			}
			w.Header().Set("Content-Type", "application/x-amz-json-1.1")
			_, _ = w.Write([]byte(`{
				"DocumentMetadata": {"Pages": 1},
				"Blocks": [
					{"BlockType": "PAGE", "Page": 1},
					{"BlockType": "LINE", "Text": "Hello", "Confidence": 99.1, "Page": 1},
					{"BlockType": "WORD", "Text": "Hello", "Page": 1},
					{"BlockType": "LINE", "Text": "World", "Confidence": 98.7, "Page": 1}
				]
			}`))
		})
		defer server.Close()

		client, err := NewTextractClient(context.Background(), newTestAWSConfig(server.URL, 1))
		if err != nil {
			t.Fatalf("NewTextractClient() error = %v", err)
		}

		repo := NewTextractRepository(client, &config.AWSConfig{})
		blocks, err := repo.DetectText(context.Background(), []byte("png-bytes"))
		if err != nil {
			t.Fatalf("DetectText() error = %v", err)
		}

		lines := domain.ExtractLines(blocks)
		if !reflect.DeepEqual(lines, []string{"Hello", "World"}) {
			t.Errorf("lines = %v, want [Hello World]", lines)
		}
		if len(blocks) != 4 {
			t.Errorf("len(blocks) = %d, want 4", len(blocks))
		}
	})

	t.Run("異常系_プロバイダーエラーはリトライしない", func(t *testing.T) {
		var hits int32
		server := newTextractServer(t, &hits, func(w http.ResponseWriter, document []byte) {
			w.Header().Set("Content-Type", "application/x-amz-json-1.1")
			w.Header().Set("X-Amzn-ErrorType", "InternalServerError")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"__type":"InternalServerError","message":"boom"}`))
		})
		defer server.Close()

		client, err := NewTextractClient(context.Background(), newTestAWSConfig(server.URL, 1))
		if err != nil {
			t.Fatalf("NewTextractClient() error = %v", err)
		}

		repo := NewTextractRepository(client, &config.AWSConfig{})
		if _, err := repo.DetectText(context.Background(), []byte("x")); err == nil {
			t.Fatal("Expected error, got nil")
		}

		if got := atomic.LoadInt32(&hits); got != 1 {
			t.Errorf("hits = %d, want 1", got)
		}
	})

	t.Run("異常系_不正なドキュメント", func(t *testing.T) {
		var hits int32
		server := newTextractServer(t, &hits, func(w http.ResponseWriter, document []byte) {
			w.Header().Set("Content-Type", "application/x-amz-json-1.1")
			w.Header().Set("X-Amzn-ErrorType", "UnsupportedDocumentException")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"__type":"UnsupportedDocumentException","message":"Request has unsupported document format"}`))
		})
		defer server.Close()

		client, err := NewTextractClient(context.Background(), newTestAWSConfig(server.URL, 1))
		if err != nil {
			t.Fatalf("NewTextractClient() error = %v", err)
		}

		repo := NewTextractRepository(client, &config.AWSConfig{})
		_, err = repo.DetectText(context.Background(), []byte("x"))
		if err == nil {
			t.Fatal("Expected error, got nil")
		}

		var unsupported *types.UnsupportedDocumentException
		if !errors.As(err, &unsupported) {
			t.Errorf("Expected UnsupportedDocumentException, got %v", err)
		}
	})

	t.Run("正常系_max_attemptsでリトライ", func(t *testing.T) {
		var hits int32
		server := newTextractServer(t, &hits, func(w http.ResponseWriter, document []byte) {
			w.Header().Set("Content-Type", "application/x-amz-json-1.1")
			if atomic.LoadInt32(&hits) == 1 {
				w.Header().Set("X-Amzn-ErrorType", "InternalServerError")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"__type":"InternalServerError","message":"boom"}`))
				return
			}
			_, _ = w.Write([]byte(`{"Blocks":[{"BlockType":"LINE","Text":"retried"}]}`))
		})
		defer server.Close()

		client, err := NewTextractClient(context.Background(), newTestAWSConfig(server.URL, 2))
		if err != nil {
			t.Fatalf("NewTextractClient() error = %v", err)
		}

		repo := NewTextractRepository(client, &config.AWSConfig{})
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		blocks, err := repo.DetectText(ctx, []byte("x"))
		if err != nil {
			t.Fatalf("DetectText() error = %v", err)
		}
		if got := domain.ExtractLines(blocks); !reflect.DeepEqual(got, []string{"retried"}) {
			t.Errorf("lines = %v, want [retried]", got)
		}
		if got := atomic.LoadInt32(&hits); got != 2 {
			t.Errorf("hits = %d, want 2", got)
		}
	})
}
