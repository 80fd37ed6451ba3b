// Package catalog は合成バックエンドのボイス一覧を保持し、名前からIDを解決します。
package catalog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/antzucaro/matchr"
)

// suggestionThreshold は「もしかして」候補として提示する Jaro-Winkler 類似度の下限です。
const suggestionThreshold = 0.8

// Catalog はバックエンドから取得したボイス一覧を保持します。
// 一度取得した内容は Refresh が呼ばれるまで保持され、検索時に暗黙の再取得は行いません。
type Catalog struct {
	fetcher Fetcher

	mu      sync.RWMutex
	entries []Entry
	loaded  bool
}

// New は fetcher を使う空の Catalog を作成します。
func New(fetcher Fetcher) *Catalog {
	return &Catalog{fetcher: fetcher}
}

// List はカタログを返します。未取得の場合のみバックエンドから取得します。
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	c.mu.RLock()
	if c.loaded {
		entries := c.entries
		c.mu.RUnlock()
		return entries, nil
	}
	c.mu.RUnlock()

	return c.Refresh(ctx)
}

// Refresh はバックエンドから常に再取得し、保持している一覧を置き換えます。
// 失敗した場合、保持している一覧は変更されません。
func (c *Catalog) Refresh(ctx context.Context) ([]Entry, error) {
	entries, err := c.fetcher.FetchVoices(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries = entries
	c.loaded = true
	c.mu.Unlock()

	slog.InfoContext(ctx, "ボイスカタログを取得しました", "voices_count", len(entries))
	return entries, nil
}

// Entries は直近に取得した一覧を返します (未取得なら nil)。
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries
}

// ----------------------------------------------------------------------
// 検索
// ----------------------------------------------------------------------

// Speaker は表示名が一致する話者を返します。
func (c *Catalog) Speaker(name string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if e.DisplayName == name {
			return e, nil
		}
	}

	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.DisplayName
	}
	return Entry{}, &ErrNotFound{Kind: "speaker", Name: name, Suggestion: suggest(name, names)}
}

// StyleNames は話者が持つスタイル名を宣言順に返します。
func (c *Catalog) StyleNames(speakerName string) ([]string, error) {
	e, err := c.Speaker(speakerName)
	if err != nil {
		return nil, err
	}
	return e.StyleNames(), nil
}

// ResolveStyleID は (話者名, スタイル名) からスタイルIDを解決します。
func (c *Catalog) ResolveStyleID(speakerName, styleName string) (int, error) {
	e, err := c.Speaker(speakerName)
	if err != nil {
		return 0, err
	}
	for _, s := range e.Styles {
		if s.Name == styleName {
			return s.ID, nil
		}
	}
	return 0, &ErrNotFound{
		Kind:       "style",
		Name:       styleName,
		Speaker:    speakerName,
		Suggestion: suggest(styleName, e.StyleNames()),
	}
}

// ResolveVoiceID は表示名またはボイスIDから単一階層のボイスIDを解決します。
func (c *Catalog) ResolveVoiceID(nameOrID string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.entries {
		if e.VoiceID != "" && e.VoiceID == nameOrID {
			return e.VoiceID, nil
		}
	}
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		if e.DisplayName == nameOrID && e.VoiceID != "" {
			return e.VoiceID, nil
		}
		names = append(names, e.DisplayName)
	}
	return "", &ErrNotFound{Kind: "voice", Name: nameOrID, Suggestion: suggest(nameOrID, names)}
}

// suggest は name に最も近い候補を返します。閾値未満なら空文字列です。
func suggest(name string, candidates []string) string {
	best := ""
	bestScore := 0.0
	for _, cand := range candidates {
		score := matchr.JaroWinkler(name, cand, false)
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}
