package voicevox

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxSegmentChars はVOICEVOXが安全に処理できる1リクエストあたりの最大文字数の目安です。
const DefaultMaxSegmentChars = 200

// isSplitPunctuation は分割位置として優先する句読点です。
func isSplitPunctuation(r rune) bool {
	switch r {
	case '。', '、', '！', '？', '!', '?', '…':
		return true
	}
	return false
}

// splitText は text を maxChars 文字以下のセグメントに分割します。
// 上限内で最後に現れる句読点の直後で区切り、句読点が見つからない場合は上限位置で強制的に区切ります。
func splitText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	var segments []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= maxChars {
			segments = appendSegment(segments, string(runes))
			break
		}

		splitAt := -1
		for i := 0; i < maxChars; i++ {
			if isSplitPunctuation(runes[i]) {
				splitAt = i + 1
			}
		}
		if splitAt <= 0 {
			splitAt = maxChars
		}

		segments = appendSegment(segments, string(runes[:splitAt]))
		runes = runes[splitAt:]
	}
	return segments
}

func appendSegment(segments []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return segments
	}
	return append(segments, s)
}
