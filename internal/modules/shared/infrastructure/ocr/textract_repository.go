package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/aws/smithy-go"

	"ocr-classify-api/internal/config"
	"ocr-classify-api/internal/modules/classify/domain"
)

// TextractAPI Textractクライアントのうち利用するメソッド（テスト用のSeam）
type TextractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// NewTextractClient 設定からTextractクライアントを作成
func NewTextractClient(ctx context.Context, cfg *config.AWSConfig) (*textract.Client, error) {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(maxAttempts),
	}

	// 静的クレデンシャルが無い場合はSDKのデフォルトチェーンに任せる
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				cfg.SessionToken,
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := textract.NewFromConfig(awsCfg, func(o *textract.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return client, nil
}

// TextractRepository AWS Textractのリポジトリ実装
type TextractRepository struct {
	client  TextractAPI
	timeout time.Duration
}

// NewTextractRepository 新しいTextractRepositoryを作成
func NewTextractRepository(client TextractAPI, cfg *config.AWSConfig) *TextractRepository {
	return &TextractRepository{
		client:  client,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// DetectText DetectDocumentTextを呼び出してブロックを返す
func (r *TextractRepository) DetectText(ctx context.Context, document []byte) ([]domain.Block, error) {
	slog.Info("Sending image to Textract", "bytes", len(document))

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	output, err := r.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: document},
	})
	if err != nil {
		logTextractError(err)
		return nil, fmt.Errorf("textract detect document text failed: %w", err)
	}

	blocks := make([]domain.Block, 0, len(output.Blocks))
	for _, b := range output.Blocks {
		blocks = append(blocks, toDomainBlock(b))
	}

	slog.Info("Textract response received", "blocks", len(blocks))
	return blocks, nil
}

// ProviderName プロバイダー名を返す
func (r *TextractRepository) ProviderName() string {
	return "AWS Textract"
}

func toDomainBlock(b types.Block) domain.Block {
	return domain.Block{
		Type:       domain.BlockType(b.BlockType),
		Text:       aws.ToString(b.Text),
		Confidence: float64(aws.ToFloat32(b.Confidence)),
		Page:       int(aws.ToInt32(b.Page)),
	}
}

func logTextractError(err error) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		slog.Error("Error invoking Textract",
			"code", apiErr.ErrorCode(),
			"message", apiErr.ErrorMessage(),
			"fault", apiErr.ErrorFault().String(),
		)
		return
	}
	slog.Error("Error invoking Textract", "error", err)
}
