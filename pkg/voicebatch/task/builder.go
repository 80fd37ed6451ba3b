package task

import (
	"log/slog"
	"slices"
	"strings"
)

// ----------------------------------------------------------------------
// インターフェース
// ----------------------------------------------------------------------

// StyleSelector は台詞とスタイル一覧から使用するスタイルを選びます。
// emotion.Classifier がこれを満たします。
type StyleSelector interface {
	Classify(text string, styles []string) string
	Fallback(styles []string) string
}

// StyleSource は話者が持つスタイル名の一覧を提供します。
// catalog.Catalog がこれを満たします。
type StyleSource interface {
	StyleNames(speakerName string) ([]string, error)
}

// ----------------------------------------------------------------------
// Builder
// ----------------------------------------------------------------------

// Builder は台本の行とボイス割り当てから合成タスクの列を組み立てます。
type Builder struct {
	selector StyleSelector
	styles   StyleSource
}

// NewBuilder は新しい Builder を作成します。
// 単一階層のボイスしか扱わない場合、selector と styles は nil でも構いません。
func NewBuilder(selector StyleSelector, styles StyleSource) *Builder {
	return &Builder{selector: selector, styles: styles}
}

// Build は割り当て順 (外側) × シートの行順 (内側) でタスクを生成します。
// 台詞またはファイル名が空の行は黙って除外されます。Build は失敗しません。
func (b *Builder) Build(rows []ScriptRow, assignments Assignments, autoEmotion bool) []SynthesisTask {
	var tasks []SynthesisTask

	for _, as := range assignments {
		for _, row := range rows {
			if strings.TrimSpace(row.Character) != as.Character {
				continue
			}
			dialogue := strings.TrimSpace(row.Dialogue)
			filename := strings.TrimSpace(row.Filename)
			if dialogue == "" || filename == "" {
				continue
			}

			tasks = append(tasks, SynthesisTask{
				Character:      as.Character,
				Voice:          b.resolveVoice(as.Voice, dialogue, autoEmotion),
				Dialogue:       dialogue,
				OutputFilename: filename,
			})
		}
	}

	return tasks
}

// resolveVoice は行ごとの実効スタイルを決定します。
func (b *Builder) resolveVoice(voice VoiceRef, dialogue string, autoEmotion bool) VoiceRef {
	if !voice.TwoTier() || b.styles == nil || b.selector == nil {
		return voice
	}

	styles, err := b.styles.StyleNames(voice.SpeakerName)
	if err != nil {
		// 合成時に NotFound として個別に失敗させる
		slog.Warn("話者のスタイル一覧を取得できません。割り当てをそのまま使用します。",
			"speaker", voice.SpeakerName, "error", err)
		return voice
	}

	if autoEmotion {
		voice.StyleName = b.selector.Classify(dialogue, styles)
		return voice
	}

	if !slices.Contains(styles, voice.StyleName) {
		fallback := b.selector.Fallback(styles)
		slog.Warn("割り当てられたスタイルが見つからないため、デフォルトスタイルを使用します。",
			"speaker", voice.SpeakerName, "style", voice.StyleName, "fallback", fallback)
		voice.StyleName = fallback
	}
	return voice
}
