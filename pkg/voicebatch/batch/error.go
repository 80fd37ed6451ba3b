package batch

import "fmt"

// ErrPrecondition はバッチ開始前の前提条件違反を示します。
// この場合、タスクは1件も実行されず、ファイルも書き込まれません。
type ErrPrecondition struct {
	Reason     string
	WrappedErr error
}

func (e *ErrPrecondition) Error() string {
	if e.WrappedErr != nil {
		return fmt.Sprintf("バッチの前提条件エラー: %s: %v", e.Reason, e.WrappedErr)
	}
	return fmt.Sprintf("バッチの前提条件エラー: %s", e.Reason)
}

func (e *ErrPrecondition) Unwrap() error { return e.WrappedErr }
