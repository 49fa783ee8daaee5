package domain

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG形式のサポート
	_ "image/png"  // PNG形式のサポート
	"strings"

	_ "golang.org/x/image/tiff" // TIFF形式のサポート
)

// MaxImageSize Textractの同期APIが受け付ける最大サイズ
const MaxImageSize = 10 * 1024 * 1024

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeImage base64文字列を画像バイト列にデコード
func DecodeImage(encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	if s == "" {
		return nil, &DecodeError{Reason: "image field is missing"}
	}

	// data URL形式（data:image/png;base64,...）
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ";base64,")
		if idx == -1 {
			return nil, &DecodeError{Reason: "unsupported data URL"}
		}
		s = s[idx+len(";base64,"):]
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, &DecodeError{Reason: "image field is empty"}
	}

	var lastErr error
	for _, enc := range base64Encodings {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, &DecodeError{Reason: "invalid base64", Err: lastErr}
}

// ValidateImageSize 画像サイズを検証
func ValidateImageSize(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("image data is empty: %w", ErrInvalidImage)
	}

	if len(data) > MaxImageSize {
		return fmt.Errorf("image size exceeds 10MB: %w", ErrInvalidImage)
	}

	return nil
}

// ValidateImageFormat Textractが扱える形式（PNG/JPEG/TIFF/PDF）か検証
func ValidateImageFormat(data []byte) error {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid image format: %v: %w", err, ErrInvalidImage)
	}

	allowedFormats := map[string]bool{"png": true, "jpeg": true, "tiff": true}
	if !allowedFormats[format] {
		return fmt.Errorf("unsupported format %s: %w", format, ErrInvalidImage)
	}

	return nil
}
