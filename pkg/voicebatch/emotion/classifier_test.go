package emotion

import (
	"slices"
	"testing"
)

func TestClassify_DefaultTable(t *testing.T) {
	c := NewClassifier(DefaultTable)

	tests := []struct {
		name   string
		text   string
		styles []string
		want   string
	}{
		{"affection", "大好き", []string{"あまあま", "ノーマル"}, "あまあま"},
		{"anger", "ふざけるな", []string{"怒り", "ノーマル"}, "怒り"},
		{"no keyword falls back to normal", "今日は天気です", []string{"あまあま", "ノーマル"}, "ノーマル"},
		{"scored emotion without style falls back", "ふざけるな", []string{"あまあま", "ノーマル"}, "ノーマル"},
		{"no normal style falls back to first", "今日は天気です", []string{"セクシー", "ささやき"}, "セクシー"},
		{"empty styles returns placeholder", "大好き", nil, PlaceholderStyle},
		{"english normal is case-insensitive", "hello", []string{"Happy", "Normal"}, "Normal"},
		{"localized synonym", "hello", []string{"喜び", "通常"}, "通常"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text, tt.styles)
			if got != tt.want {
				t.Errorf("Classify(%q, %v) = %q, want %q", tt.text, tt.styles, got, tt.want)
			}
		})
	}
}

func TestClassify_HigherScoreWins(t *testing.T) {
	table := Table{
		{Label: "a", Keywords: []string{"x"}},
		{Label: "b", Keywords: []string{"y", "z"}},
	}
	c := NewClassifier(table)

	if got := c.Classify("xyz", []string{"a-style", "b-style"}); got != "b-style" {
		t.Errorf("expected b-style (score 2), got %q", got)
	}
}

func TestClassify_TieBrokenByTableOrder(t *testing.T) {
	table := Table{
		{Label: "first", Keywords: []string{"x"}},
		{Label: "second", Keywords: []string{"y"}},
	}
	c := NewClassifier(table)

	if got := c.Classify("yx", []string{"second", "first"}); got != "first" {
		t.Errorf("expected first-declared emotion to win the tie, got %q", got)
	}
}

func TestClassify_DistinctKeywordsOnly(t *testing.T) {
	table := Table{
		{Label: "a", Keywords: []string{"x", "x"}},
		{Label: "b", Keywords: []string{"y", "w"}},
	}
	c := NewClassifier(table)

	// "xxx" は a のキーワード "x" を1種類しか含まないので、a のスコアは 1。b は "y","w" で 2。
	if got := c.Classify("xxx y w", []string{"a", "b"}); got != "b" {
		t.Errorf("expected b, got %q", got)
	}
}

func TestClassify_KeywordMatchIsCaseSensitive(t *testing.T) {
	table := Table{{Label: "angry", Keywords: []string{"STOP"}}}
	c := NewClassifier(table)

	if got := c.Classify("stop", []string{"Angry", "Normal"}); got != "Normal" {
		t.Errorf("expected case-sensitive keyword miss to fall back, got %q", got)
	}
	if got := c.Classify("STOP", []string{"Angry", "Normal"}); got != "Angry" {
		t.Errorf("expected Angry, got %q", got)
	}
}

func TestClassify_FallsThroughToNextRankedEmotion(t *testing.T) {
	table := Table{
		{Label: "missing", Keywords: []string{"a", "b"}},
		{Label: "present", Keywords: []string{"c"}},
	}
	c := NewClassifier(table)

	if got := c.Classify("abc", []string{"present", "normal"}); got != "present" {
		t.Errorf("expected second-ranked emotion with an available style, got %q", got)
	}
}

func TestClassify_AlwaysReturnsAvailableStyle(t *testing.T) {
	c := NewClassifier(DefaultTable)
	styles := []string{"セクシー", "ヒソヒソ"}
	texts := []string{"大好き", "ふざけるな", "内緒だよ", "ひそひそ話", "うふふ", "", "普通の文"}

	for _, text := range texts {
		got := c.Classify(text, styles)
		if !slices.Contains(styles, got) {
			t.Errorf("Classify(%q) returned %q which is not in %v", text, got, styles)
		}
	}
}

func TestNewClassifier_CopiesTable(t *testing.T) {
	table := Table{{Label: "a", Keywords: []string{"x"}}}
	c := NewClassifier(table)
	table[0].Keywords[0] = "changed"

	if got := c.Classify("x", []string{"a", "normal"}); got != "a" {
		t.Errorf("classifier should not observe mutation of the source table, got %q", got)
	}
}

func TestFallback_Options(t *testing.T) {
	c := NewClassifier(DefaultTable, WithNormalNames("standard"), WithPlaceholder("default"))

	if got := c.Fallback([]string{"happy", "Standard"}); got != "Standard" {
		t.Errorf("expected custom normal name match, got %q", got)
	}
	if got := c.Fallback(nil); got != "default" {
		t.Errorf("expected custom placeholder, got %q", got)
	}
}
