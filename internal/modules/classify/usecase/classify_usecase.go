package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ocr-classify-api/internal/modules/classify/domain"
)

const recordTimeout = 5 * time.Second

// Options ClassifyUseCaseの動作設定
type Options struct {
	// ValidateFormat trueの場合、PNG/JPEG/TIFF/PDF以外を入力エラーにする
	ValidateFormat bool
	// CacheTTL キャッシュの有効期限（0は無期限）
	CacheTTL time.Duration
}

// ClassifyUseCase 画像の文字認識ユースケース
type ClassifyUseCase struct {
	detector   domain.TextDetector
	cacheRepo  domain.CacheRepository
	recordRepo domain.ClassificationRecordRepository
	opts       Options
}

// NewClassifyUseCase 新しいClassifyUseCaseを作成
// cacheRepo と recordRepo は nil の場合は無効
func NewClassifyUseCase(
	detector domain.TextDetector,
	cacheRepo domain.CacheRepository,
	recordRepo domain.ClassificationRecordRepository,
	opts Options,
) *ClassifyUseCase {
	return &ClassifyUseCase{
		detector:   detector,
		cacheRepo:  cacheRepo,
		recordRepo: recordRepo,
		opts:       opts,
	}
}

// Classify 画像バイト列から行テキストを検出
func (uc *ClassifyUseCase) Classify(ctx context.Context, imageData []byte) (*domain.Classification, error) {
	// 入力検証
	if err := domain.ValidateImageSize(imageData); err != nil {
		return nil, err
	}
	if uc.opts.ValidateFormat {
		if err := domain.ValidateImageFormat(imageData); err != nil {
			return nil, err
		}
	}

	hash := sha256.Sum256(imageData)
	imageHash := hex.EncodeToString(hash[:])
	cacheKey := uc.cacheKey(imageHash)

	// キャッシュチェック
	if uc.cacheRepo != nil {
		if cached, ok := uc.getCached(ctx, cacheKey); ok {
			result := domain.NewClassification(uc.detector.ProviderName(), cached)
			result.Cached = true
			return result, nil
		}
	}

	blocks, err := uc.detector.DetectText(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("text detection failed: %w", err)
	}

	lines := domain.ExtractLines(blocks)
	result := domain.NewClassification(uc.detector.ProviderName(), lines)
	slog.Info("Detected text lines", "id", result.ID, "lines", result.LineCount())

	if uc.cacheRepo != nil {
		uc.setCached(ctx, cacheKey, lines)
	}

	// 履歴保存はレスポンスに影響させない
	if uc.recordRepo != nil {
		record := domain.NewClassificationRecord(result, imageHash, len(imageData))
		go uc.saveRecord(context.WithoutCancel(ctx), record)
	}

	return result, nil
}

// FindRecord 保存済みの認識履歴を取得
func (uc *ClassifyUseCase) FindRecord(ctx context.Context, id string) (*domain.ClassificationRecord, error) {
	if uc.recordRepo == nil {
		return nil, domain.ErrRecordsDisabled
	}
	record, err := uc.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find classification record: %w", err)
	}
	return record, nil
}

// GetProviderName プロバイダー名を取得
func (uc *ClassifyUseCase) GetProviderName() string {
	return uc.detector.ProviderName()
}

func (uc *ClassifyUseCase) cacheKey(imageHash string) string {
	return fmt.Sprintf("classify:%s:%s", uc.detector.ProviderName(), imageHash)
}

func (uc *ClassifyUseCase) getCached(ctx context.Context, key string) ([]string, bool) {
	data, err := uc.cacheRepo.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return nil, false
	}

	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		slog.Warn("Discarding corrupt cache entry", "key", key, "error", err)
		return nil, false
	}
	return lines, true
}

func (uc *ClassifyUseCase) setCached(ctx context.Context, key string, lines []string) {
	data, err := json.Marshal(lines)
	if err != nil {
		return
	}
	if err := uc.cacheRepo.Set(ctx, key, data, uc.opts.CacheTTL); err != nil {
		slog.Warn("Failed to write cache", "key", key, "error", err)
	}
}

func (uc *ClassifyUseCase) saveRecord(ctx context.Context, record *domain.ClassificationRecord) {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := uc.recordRepo.Create(ctx, record); err != nil {
		slog.Error("Failed to save classification record", "id", record.ID, "error", err)
		return
	}
	slog.Info("Saved classification record", "id", record.ID, "lines", len(record.Lines))
}
