package domain

import (
	"context"
	"time"
)

// TextDetector 外部OCRプロバイダーのリポジトリインターフェース
type TextDetector interface {
	// DetectText 画像バイト列からブロックを検出
	DetectText(ctx context.Context, document []byte) ([]Block, error)

	// ProviderName プロバイダー名を返す
	ProviderName() string
}

// CacheRepository キャッシュリポジトリのインターフェース
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// ClassificationRecordRepository 認識履歴リポジトリのインターフェース
type ClassificationRecordRepository interface {
	Create(ctx context.Context, record *ClassificationRecord) error
	FindByID(ctx context.Context, id string) (*ClassificationRecord, error)
}
