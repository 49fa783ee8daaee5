package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ocr-classify-api/internal/config"
	"ocr-classify-api/internal/modules/classify/domain"
	classifyHandler "ocr-classify-api/internal/modules/classify/presentation/handler"
	classifyUsecase "ocr-classify-api/internal/modules/classify/usecase"
	sharedCache "ocr-classify-api/internal/modules/shared/infrastructure/cache"
	sharedDB "ocr-classify-api/internal/modules/shared/infrastructure/database"
	sharedOCR "ocr-classify-api/internal/modules/shared/infrastructure/ocr"
	"ocr-classify-api/internal/presentation/http/handler"
)

// Container DIコンテナ
type Container struct {
	// Shared Infrastructure
	detector   domain.TextDetector
	cacheRepo  *sharedCache.RedisRepository
	recordRepo *sharedDB.BunClassificationRepository

	// Classify Module
	classifyUseCase *classifyUsecase.ClassifyUseCase
	classifyHandler *classifyHandler.ClassifyHandler
	recordHandler   *classifyHandler.RecordHandler

	healthHandler *handler.HealthHandler
}

// NewContainer 新しいContainerを作成
// OCRクライアントはここで一度だけ生成し、全リクエストで共有する
func NewContainer(cfg *config.Config) (*Container, error) {
	detector, err := NewDetector(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize text detector: %w", err)
	}
	return NewContainerWithDetector(cfg, detector)
}

// NewDetector 設定に応じたOCRプロバイダーを作成
func NewDetector(ctx context.Context, cfg *config.Config) (domain.TextDetector, error) {
	switch cfg.Classifier.Provider {
	case config.ProviderTextract, "":
		client, err := sharedOCR.NewTextractClient(ctx, &cfg.AWS)
		if err != nil {
			return nil, err
		}
		return sharedOCR.NewTextractRepository(client, &cfg.AWS), nil
	case config.ProviderClaude:
		return sharedOCR.NewClaudeRepository(&cfg.Anthropic), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider: %q", cfg.Classifier.Provider)
	}
}

// NewContainerWithDetector 指定したOCRプロバイダーでContainerを作成
func NewContainerWithDetector(cfg *config.Config, detector domain.TextDetector) (*Container, error) {
	if detector == nil {
		return nil, errors.New("text detector is required")
	}

	container := &Container{detector: detector}

	// nil ポインタをインターフェースに入れないよう個別に保持する
	var cacheRepo domain.CacheRepository
	var recordRepo domain.ClassificationRecordRepository

	// Shared Infrastructure: Cache Repository
	if cfg.Redis.Enabled {
		repo, err := sharedCache.NewRedisRepository(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache repository: %w", err)
		}
		container.cacheRepo = repo
		cacheRepo = repo
	}

	// Shared Infrastructure: Classification Record Repository
	if cfg.MySQL.Enabled {
		repo, err := sharedDB.NewBunClassificationRepository(&cfg.MySQL)
		if err != nil {
			_ = container.Close()
			return nil, fmt.Errorf("failed to initialize classification repository: %w", err)
		}
		container.recordRepo = repo
		recordRepo = repo
	}

	// Classify Module: UseCase
	container.classifyUseCase = classifyUsecase.NewClassifyUseCase(detector, cacheRepo, recordRepo, classifyUsecase.Options{
		ValidateFormat: cfg.Server.RejectInvalidInput,
		CacheTTL:       time.Duration(cfg.Redis.TTLSeconds) * time.Second,
	})

	// Classify Module: Handler
	container.classifyHandler = classifyHandler.NewClassifyHandler(container.classifyUseCase, classifyHandler.Options{
		RejectInvalidInput: cfg.Server.RejectInvalidInput,
		MaxBodyBytes:       cfg.Server.MaxBodyBytes,
		CacheEnabled:       cacheRepo != nil,
	})

	// Classify Module: 履歴参照は保存が有効な場合のみ
	if recordRepo != nil {
		container.recordHandler = classifyHandler.NewRecordHandler(container.classifyUseCase)
	}

	container.healthHandler = handler.NewHealthHandler(container.classifyUseCase)

	return container, nil
}

// ClassifyUseCase 文字認識ユースケースを取得
func (c *Container) ClassifyUseCase() *classifyUsecase.ClassifyUseCase {
	return c.classifyUseCase
}

// ClassifyHandler /classify ハンドラーを取得
func (c *Container) ClassifyHandler() *classifyHandler.ClassifyHandler {
	return c.classifyHandler
}

// RecordHandler /classifications/{id} ハンドラーを取得（履歴保存が無効ならnil）
func (c *Container) RecordHandler() *classifyHandler.RecordHandler {
	return c.recordHandler
}

// HealthHandler /health ハンドラーを取得
func (c *Container) HealthHandler() *handler.HealthHandler {
	return c.healthHandler
}

// Close リソースをクローズ
func (c *Container) Close() error {
	var errs []error

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache repository: %w", err))
		}
	}

	if c.recordRepo != nil {
		if err := c.recordRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close classification repository: %w", err))
		}
	}

	return errors.Join(errs...)
}
