package catalog

import "context"

// ----------------------------------------------------------------------
// データモデル
// ----------------------------------------------------------------------

// Style は話者のスタイル (感情・話し方のバリエーション) です。
type Style struct {
	Name string
	ID   int
}

// Entry はカタログ上のボイス (話者) 1件です。
// 単一階層のバックエンドでは VoiceID を直接使い、Styles は空です。
// 話者/スタイル階層のバックエンドでは VoiceID は空で、(話者名, スタイル名) から Style.ID を解決します。
type Entry struct {
	DisplayName string
	VoiceID     string
	Styles      []Style
}

// StyleNames はスタイル名を宣言順に返します。
func (e Entry) StyleNames() []string {
	names := make([]string, len(e.Styles))
	for i, s := range e.Styles {
		names[i] = s.Name
	}
	return names
}

// ----------------------------------------------------------------------
// インターフェース定義
// ----------------------------------------------------------------------

// Fetcher はバックエンドからボイス一覧を取得する能力を抽象化します。
// elevenlabs.Client と voicevox.Client がこれを満たします。
type Fetcher interface {
	FetchVoices(ctx context.Context) ([]Entry, error)
}
