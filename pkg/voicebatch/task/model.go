package task

import "strings"

// ----------------------------------------------------------------------
// データモデル (台本とボイス割り当て)
// ----------------------------------------------------------------------

// ScriptRow は台本シートの1行 (キャラクター, 台詞, 出力ファイル名) です。
type ScriptRow struct {
	Character string
	Dialogue  string
	Filename  string
}

// Eligible は3項目すべてが前後の空白を除いて空でない場合に true を返します。
func (r ScriptRow) Eligible() bool {
	return strings.TrimSpace(r.Character) != "" &&
		strings.TrimSpace(r.Dialogue) != "" &&
		strings.TrimSpace(r.Filename) != ""
}

// VoiceRef は合成に使うボイスの参照です。
// 単一階層のバックエンドでは VoiceID、話者/スタイル階層を持つバックエンドでは SpeakerName と StyleName を使います。
type VoiceRef struct {
	VoiceID     string
	SpeakerName string
	StyleName   string
}

// TwoTier は話者/スタイル形式の参照かどうかを返します。
func (v VoiceRef) TwoTier() bool {
	return v.SpeakerName != ""
}

func (v VoiceRef) String() string {
	if v.TwoTier() {
		return "[" + v.SpeakerName + "][" + v.StyleName + "]"
	}
	return v.VoiceID
}

// SynthesisTask は1ファイル分の合成タスクです。BatchRunner によって一度だけ消費されます。
type SynthesisTask struct {
	Character      string
	Voice          VoiceRef
	Dialogue       string
	OutputFilename string
}

// ----------------------------------------------------------------------
// ボイス割り当て (順序付き)
// ----------------------------------------------------------------------

// Assignment はキャラクター1人分のボイス割り当てです。
type Assignment struct {
	Character string
	Voice     VoiceRef
}

// Assignments はキャラクター→ボイスの順序付き対応表です。
// タスクの生成順はこの並び順に従います。
type Assignments []Assignment

// Add はキャラクター名を前後の空白を除いて登録します。
// 既に同じキャラクターがあれば、その位置のまま割り当てを置き換えます。
func (a *Assignments) Add(character string, voice VoiceRef) {
	name := strings.TrimSpace(character)
	if name == "" {
		return
	}
	for i := range *a {
		if (*a)[i].Character == name {
			(*a)[i].Voice = voice
			return
		}
	}
	*a = append(*a, Assignment{Character: name, Voice: voice})
}

// Lookup はキャラクターに割り当てられたボイスを返します。
func (a Assignments) Lookup(character string) (VoiceRef, bool) {
	for _, as := range a {
		if as.Character == character {
			return as.Voice, true
		}
	}
	return VoiceRef{}, false
}
