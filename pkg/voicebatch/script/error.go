package script

import "fmt"

// ErrUnsupportedFormat は読み込めない拡張子のファイルが指定されたことを示します。
type ErrUnsupportedFormat struct {
	Path string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("未対応の台本ファイル形式です: %s (.xlsx または .csv を指定してください)", e.Path)
}

// ErrSheetNotFound は指定したシートがブックに存在しないことを示します。
type ErrSheetNotFound struct {
	Name string
}

func (e *ErrSheetNotFound) Error() string {
	return fmt.Sprintf("シート '%s' が見つかりません", e.Name)
}

// ErrInvalidColumn は列指定 (A, B, ..., AA) が不正であることを示します。
type ErrInvalidColumn struct {
	Column     string
	WrappedErr error
}

func (e *ErrInvalidColumn) Error() string {
	return fmt.Sprintf("不正な列指定です: '%s': %v", e.Column, e.WrappedErr)
}

func (e *ErrInvalidColumn) Unwrap() error { return e.WrappedErr }
