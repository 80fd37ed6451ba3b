// Package emotion は台詞のキーワードから感情スタイルを推定します。
package emotion

import (
	"sort"
	"strings"
)

// Emotion は感情ラベルと、それを示すキーワード群の組です。
type Emotion struct {
	Label    string
	Keywords []string
}

// Table は順序付きの感情キーワード表です。
type Table []Emotion

// Classifier はキーワード表に基づいて台詞に合うスタイル名を選びます。
// 生成後は読み取り専用で、複数のゴルーチンから安全に利用できます。
type Classifier struct {
	table       Table
	normalNames []string
	placeholder string
}

// Option は Classifier の設定を変更する関数です。
type Option func(*Classifier)

// WithNormalNames は「通常」スタイルとみなす名前を置き換えます。
func WithNormalNames(names ...string) Option {
	return func(c *Classifier) {
		if len(names) > 0 {
			c.normalNames = append([]string(nil), names...)
		}
	}
}

// WithPlaceholder はスタイル一覧が空のときに返すラベルを設定します。
func WithPlaceholder(label string) Option {
	return func(c *Classifier) {
		if label != "" {
			c.placeholder = label
		}
	}
}

// NewClassifier は table の複製を保持する Classifier を作成します。
func NewClassifier(table Table, opts ...Option) *Classifier {
	copied := make(Table, len(table))
	for i, e := range table {
		copied[i] = Emotion{Label: e.Label, Keywords: append([]string(nil), e.Keywords...)}
	}
	c := &Classifier{
		table:       copied,
		normalNames: normalStyleNames,
		placeholder: PlaceholderStyle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type scored struct {
	label string
	score int
}

// Classify は text に含まれるキーワード数で感情を順位付けし、styles の中から最初に一致したスタイルを返します。
// キーワードは大文字小文字を区別する単純な部分一致です。どの感情も一致しない場合は Fallback の結果を返します。
func (c *Classifier) Classify(text string, styles []string) string {
	for _, s := range c.rank(text) {
		if style, ok := findStyle(styles, s.label); ok {
			return style
		}
	}
	return c.Fallback(styles)
}

// Fallback は「通常」スタイル、先頭のスタイル、プレースホルダーの順で既定値を返します。
func (c *Classifier) Fallback(styles []string) string {
	for _, name := range c.normalNames {
		if style, ok := findStyle(styles, name); ok {
			return style
		}
	}
	if len(styles) > 0 {
		return styles[0]
	}
	return c.placeholder
}

// rank はスコア 0 の感情を除き、スコア降順 (同点は表の順) で並べます。
func (c *Classifier) rank(text string) []scored {
	var result []scored
	for _, e := range c.table {
		score := 0
		seen := make(map[string]struct{}, len(e.Keywords))
		for _, kw := range e.Keywords {
			if kw == "" {
				continue
			}
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > 0 {
			result = append(result, scored{label: e.Label, score: score})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].score > result[j].score
	})
	return result
}

// findStyle はラベルを部分文字列として含む最初のスタイル名を返します (大文字小文字を区別しない)。
func findStyle(styles []string, label string) (string, bool) {
	needle := strings.ToLower(label)
	for _, s := range styles {
		if strings.Contains(strings.ToLower(s), needle) {
			return s, true
		}
	}
	return "", false
}
