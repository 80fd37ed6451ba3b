package audio

import (
	"errors"
	"fmt"
)

var (
	errInvalidWhence    = errors.New("audio: 不正な whence です")
	errNegativePosition = errors.New("audio: 負の位置にはシークできません")
)

// ErrConversion は音声データをデコードまたは再サンプリングできなかったことを示します。
type ErrConversion struct {
	Format     Format
	Details    string
	WrappedErr error
}

func (e *ErrConversion) Error() string {
	if e.WrappedErr != nil {
		return fmt.Sprintf("音声変換に失敗しました (format=%s): %s: %v", e.Format, e.Details, e.WrappedErr)
	}
	return fmt.Sprintf("音声変換に失敗しました (format=%s): %s", e.Format, e.Details)
}

func (e *ErrConversion) Unwrap() error { return e.WrappedErr }

// ErrInvalidWAVHeader はWAVデータが短すぎる、またはヘッダーの記載とデータ長が一致しないなど、
// ヘッダーに問題があることを示します。
type ErrInvalidWAVHeader struct {
	Index   int // エラーが発生したWAVセグメントのインデックス (-1 は単体データ)
	Details string
}

func (e *ErrInvalidWAVHeader) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("WAVデータ #%d のヘッダーが無効です: %s", e.Index, e.Details)
	}
	return fmt.Sprintf("WAVヘッダーが無効です: %s", e.Details)
}

// ErrNoAudioData は結合すべきWAVデータがないことを示します。
type ErrNoAudioData struct{}

func (e *ErrNoAudioData) Error() string {
	return "処理対象となる有効なオーディオデータがありません"
}
