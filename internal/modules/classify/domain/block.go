package domain

// BlockType OCRプロバイダーが返すブロックの種別
type BlockType string

const (
	// BlockTypePage ページ単位のブロック
	BlockTypePage BlockType = "PAGE"
	// BlockTypeLine 行単位のブロック
	BlockTypeLine BlockType = "LINE"
	// BlockTypeWord 単語単位のブロック
	BlockTypeWord BlockType = "WORD"
)

// Block OCRプロバイダーのレスポンスに含まれる構造ブロック
type Block struct {
	Type       BlockType
	Text       string
	Confidence float64
	Page       int
}

// ExtractLines 行ブロックだけをプロバイダーの順序のまま抽出してテキストに射影する
func ExtractLines(blocks []Block) []string {
	lines := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Type == BlockTypeLine {
			lines = append(lines, b.Text)
		}
	}
	return lines
}
