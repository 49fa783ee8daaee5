package domain

import (
	"time"

	"github.com/google/uuid"
)

// Classification 1リクエスト分の文字認識結果
type Classification struct {
	ID          string
	Provider    string
	Lines       []string
	Cached      bool
	ProcessedAt time.Time
}

// NewClassification 新しいClassificationを作成
func NewClassification(provider string, lines []string) *Classification {
	if lines == nil {
		lines = []string{}
	}
	return &Classification{
		ID:          uuid.NewString(),
		Provider:    provider,
		Lines:       lines,
		ProcessedAt: time.Now(),
	}
}

// LineCount 検出行数を返す
func (c *Classification) LineCount() int {
	return len(c.Lines)
}

// ClassificationRecord 永続化用の認識履歴
type ClassificationRecord struct {
	ID          string
	Provider    string
	ImageSHA256 string
	ImageSize   int
	Lines       []string
	CreatedAt   time.Time
}

// NewClassificationRecord 認識結果と画像ハッシュから履歴を作成
func NewClassificationRecord(c *Classification, imageSHA256 string, imageSize int) *ClassificationRecord {
	return &ClassificationRecord{
		ID:          c.ID,
		Provider:    c.Provider,
		ImageSHA256: imageSHA256,
		ImageSize:   imageSize,
		Lines:       c.Lines,
		CreatedAt:   c.ProcessedAt,
	}
}
