package voicevox

import "context"

// ----------------------------------------------------------------------
// データモデル (API応答)
// ----------------------------------------------------------------------

// AudioQueryResponse は /audio_query APIの応答構造の一部に対応する型です。
// 応答は検証のみに使い、/synthesis にはエンジンが返したバイト列をそのまま送ります。
type AudioQueryResponse struct {
	AccentPhrases      []map[string]any `json:"accent_phrases"`
	SpeedScale         float64          `json:"speedScale"`
	OutputSamplingRate int              `json:"outputSamplingRate"`
	OutputStereo       bool             `json:"outputStereo"`
}

// VVSpeaker はVOICEVOXの /speakers APIの応答JSON構造の一部に対応する型です。
type VVSpeaker struct {
	Name   string    `json:"name"`
	UUID   string    `json:"speaker_uuid"`
	Styles []VVStyle `json:"styles"`
}

// VVStyle は話者スタイル1件です。
type VVStyle struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// ----------------------------------------------------------------------
// インターフェース
// ----------------------------------------------------------------------

// AudioQueryClient は Synthesizer が要求する二段階合成のAPI呼び出しです。
// Client がこれを満たします。
type AudioQueryClient interface {
	RunAudioQuery(ctx context.Context, text string, styleID int) ([]byte, error)
	RunSynthesis(ctx context.Context, queryBody []byte, styleID int) ([]byte, error)
	HealthCheck(ctx context.Context) bool
}

// StyleResolver は (話者名, スタイル名) からスタイルIDを解決します。
// catalog.Catalog がこれを満たします。
type StyleResolver interface {
	ResolveStyleID(speakerName, styleName string) (int, error)
}
