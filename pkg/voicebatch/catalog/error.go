package catalog

import "fmt"

// ErrNotFound は直近に取得したカタログに話者・スタイル・ボイスが存在しないことを示します。
type ErrNotFound struct {
	Kind       string // "speaker", "style", "voice"
	Name       string
	Speaker    string // Kind が "style" のときの話者名
	Suggestion string // 類似する既知の名前 (なければ空)
}

func (e *ErrNotFound) Error() string {
	msg := fmt.Sprintf("%s '%s' がカタログに見つかりません", e.Kind, e.Name)
	if e.Speaker != "" {
		msg = fmt.Sprintf("話者 '%s' の %s", e.Speaker, msg)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (もしかして: '%s')", e.Suggestion)
	}
	return msg
}
