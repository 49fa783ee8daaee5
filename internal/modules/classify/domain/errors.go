package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidImage 入力画像が不正であることを示す
var ErrInvalidImage = errors.New("invalid image")

// ErrRecordNotFound 認識履歴が存在しない
var ErrRecordNotFound = errors.New("classification record not found")

// ErrRecordsDisabled 認識履歴の保存が無効
var ErrRecordsDisabled = errors.New("classification records are disabled")

// DecodeError base64画像のデコード失敗
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to decode image: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to decode image: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is errors.Is(err, ErrInvalidImage) を満たす
func (e *DecodeError) Is(target error) bool {
	return target == ErrInvalidImage
}
