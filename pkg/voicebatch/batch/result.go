package batch

// TaskError は失敗したタスク1件の記録です。
type TaskError struct {
	Filename string
	Message  string
}

// Result はバッチ全体の集計結果です。Run が返した後に変更されることはありません。
type Result struct {
	SuccessCount int
	ErrorCount   int
	Errors       []TaskError
	// Cancelled はタスク間でキャンセルを検知して途中終了した場合に true になります。
	Cancelled bool
}

// Attempted は実行を試みたタスク数を返します。
func (r *Result) Attempted() int {
	return r.SuccessCount + r.ErrorCount
}

// taskOutcome はタスク1件の結果です (出力パスかエラーのどちらか)。
type taskOutcome struct {
	filename string
	path     string
	err      error
}

func (r *Result) record(o taskOutcome) {
	if o.err != nil {
		r.ErrorCount++
		r.Errors = append(r.Errors, TaskError{Filename: o.filename, Message: o.err.Error()})
		return
	}
	r.SuccessCount++
}
