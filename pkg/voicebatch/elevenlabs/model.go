package elevenlabs

// ----------------------------------------------------------------------
// データモデル (API要求・応答)
// ----------------------------------------------------------------------

// VoiceSettings は合成時の声質パラメータです。
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// ttsRequest は /text-to-speech/{voice_id} の要求ボディです。
type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// voicesResponse は /voices の応答JSON構造の一部に対応する型です。
type voicesResponse struct {
	Voices []struct {
		Name    string `json:"name"`
		VoiceID string `json:"voice_id"`
	} `json:"voices"`
}
