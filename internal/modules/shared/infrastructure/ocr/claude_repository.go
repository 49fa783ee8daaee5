package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ocr-classify-api/internal/config"
	"ocr-classify-api/internal/modules/classify/domain"
)

const (
	// systemPromptLines 行単位のテキスト抽出プロンプト
	systemPromptLines = `この画像に含まれるすべてのテキストを正確に抽出してください。

抽出ルール：
1. 画像内のテキストを上から下、左から右の順に1行ずつ出力する
2. 画像上の1行を出力の1行に対応させる
3. 数字、記号も正確に抽出する
4. 抽出したテキストのみを返す（説明不要）`

	userPromptLines = "この画像からすべてのテキストを行ごとに抽出してください。"
)

// claudeRequestTimeout 1リクエストあたりの上限
const claudeRequestTimeout = 60 * time.Second

// ClaudeRepository Claude Vision APIによる文字認識のリポジトリ実装
type ClaudeRepository struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaudeRepository 新しいClaudeRepositoryを作成
func NewClaudeRepository(cfg *config.AnthropicConfig) *ClaudeRepository {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(claudeRequestTimeout),
		// Textractと同じくリトライしない
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &ClaudeRepository{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}
}

// DetectText 画像からテキストを認識し、1行を1つのLINEブロックとして返す
func (r *ClaudeRepository) DetectText(ctx context.Context, document []byte) ([]domain.Block, error) {
	slog.Info("Sending image to Claude", "bytes", len(document), "model", r.model)

	message, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: r.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPromptLines},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(detectMediaType(document), base64.StdEncoding.EncodeToString(document)),
				anthropic.NewTextBlock(userPromptLines),
			),
		},
	})
	if err != nil {
		logClaudeError(err)
		return nil, fmt.Errorf("claude messages request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	blocks := textToBlocks(text.String())
	slog.Info("Claude response received", "blocks", len(blocks))
	return blocks, nil
}

// logClaudeError APIエラーの場合はステータスも記録
func logClaudeError(err error) {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		slog.Error("Error invoking Claude", "status", apiErr.StatusCode, "error", err)
		return
	}
	slog.Error("Error invoking Claude", "error", err)
}

// ProviderName プロバイダー名を返す
func (r *ClaudeRepository) ProviderName() string {
	return "Anthropic Claude"
}

// textToBlocks 空行を除いた各行をLINEブロックに変換
func textToBlocks(text string) []domain.Block {
	blocks := make([]domain.Block, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		blocks = append(blocks, domain.Block{
			Type: domain.BlockTypeLine,
			Text: strings.TrimSpace(line),
			Page: 1,
		})
	}
	return blocks
}

// detectMediaType Claudeが受け付ける画像形式を判定（不明な場合はPNG扱い）
func detectMediaType(data []byte) string {
	switch ct := http.DetectContentType(data); ct {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return ct
	default:
		return "image/png"
	}
}
