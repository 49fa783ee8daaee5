package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	_ "github.com/go-sql-driver/mysql"

	"ocr-classify-api/internal/config"
	"ocr-classify-api/internal/modules/classify/domain"
)

// Classification BUNモデル
type Classification struct {
	bun.BaseModel `bun:"table:classifications"`

	ID          string    `bun:"id,pk,type:varchar(36)"`
	Provider    string    `bun:"provider,notnull,type:varchar(50)"`
	ImageSHA256 string    `bun:"image_sha256,notnull,type:char(64)"`
	ImageSize   int       `bun:"image_size,notnull"`
	LineCount   int       `bun:"line_count,notnull,default:0"`
	Lines       []string  `bun:"lines,type:json"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// BunClassificationRepository BUN実装
type BunClassificationRepository struct {
	db *bun.DB
}

// NewBunClassificationRepository 新しいBunClassificationRepositoryを作成
func NewBunClassificationRepository(cfg *config.MySQLConfig) (*BunClassificationRepository, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, mysqldialect.New())

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &BunClassificationRepository{db: db}
	if err := repo.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return repo, nil
}

// NewBunClassificationRepositoryWithDB DBインスタンスから作成（テスト用）
func NewBunClassificationRepositoryWithDB(db *bun.DB) *BunClassificationRepository {
	return &BunClassificationRepository{db: db}
}

// InitSchema テーブルが無ければ作成
func (r *BunClassificationRepository) InitSchema(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().Model((*Classification)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create classifications table: %w", err)
	}
	return nil
}

// Create 認識履歴を作成
func (r *BunClassificationRepository) Create(ctx context.Context, record *domain.ClassificationRecord) error {
	model := r.toModel(record)
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create classification record: %w", err)
	}
	return nil
}

// FindByID IDで認識履歴を検索
func (r *BunClassificationRepository) FindByID(ctx context.Context, id string) (*domain.ClassificationRecord, error) {
	model := &Classification{}
	err := r.db.NewSelect().
		Model(model).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find classification record: %w", err)
	}

	return r.toEntity(model), nil
}

// Close DB接続を閉じる
func (r *BunClassificationRepository) Close() error {
	return r.db.Close()
}

func (r *BunClassificationRepository) toModel(record *domain.ClassificationRecord) *Classification {
	lines := record.Lines
	if lines == nil {
		lines = []string{}
	}
	return &Classification{
		ID:          record.ID,
		Provider:    record.Provider,
		ImageSHA256: record.ImageSHA256,
		ImageSize:   record.ImageSize,
		LineCount:   len(lines),
		Lines:       lines,
		CreatedAt:   record.CreatedAt,
	}
}

func (r *BunClassificationRepository) toEntity(model *Classification) *domain.ClassificationRecord {
	lines := model.Lines
	if lines == nil {
		lines = []string{}
	}
	return &domain.ClassificationRecord{
		ID:          model.ID,
		Provider:    model.Provider,
		ImageSHA256: model.ImageSHA256,
		ImageSize:   model.ImageSize,
		Lines:       lines,
		CreatedAt:   model.CreatedAt,
	}
}
