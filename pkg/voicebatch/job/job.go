// Package job はバッチ実行の内容 (台本の場所、列の割り当て、キャラクターごとのボイス) を YAML から読み込みます。
package job

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/script"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/synth"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/task"
)

// Job は1回のバッチ実行の定義です。
type Job struct {
	Script      string      `yaml:"script"`
	Sheet       string      `yaml:"sheet"`
	Columns     Columns     `yaml:"columns"`
	StartRow    int         `yaml:"start_row"`
	OutputDir   string      `yaml:"output_dir"`
	AutoEmotion bool        `yaml:"auto_emotion"`
	Characters  []Character `yaml:"characters"`
}

// Columns は台本の列記号 (A, B, ...) の割り当てです。
type Columns struct {
	Character string `yaml:"character"`
	Dialogue  string `yaml:"dialogue"`
	Filename  string `yaml:"filename"`
}

// Character はキャラクター1人分のボイス指定です。
// 単一階層のバックエンドでは Voice (表示名またはID)、話者/スタイル階層のバックエンドでは Speaker と Style を使います。
type Character struct {
	Name    string `yaml:"name"`
	Voice   string `yaml:"voice,omitempty"`
	Speaker string `yaml:"speaker,omitempty"`
	Style   string `yaml:"style,omitempty"`
}

// Load は path の YAML を読み込み、検証済みの Job を返します。
// script と output_dir の相対パスはジョブファイルのディレクトリを基準に解決します。
func Load(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ジョブファイルを開けません (%s): %w", path, err)
	}
	defer f.Close()

	j, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("ジョブファイルの読み込みに失敗しました (%s): %w", path, err)
	}

	base := filepath.Dir(path)
	if !filepath.IsAbs(j.Script) {
		j.Script = filepath.Join(base, j.Script)
	}
	if !filepath.IsAbs(j.OutputDir) {
		j.OutputDir = filepath.Join(base, j.OutputDir)
	}
	return j, nil
}

// LoadFromReader は r から Job をデコードして検証します。未知のキーはエラーになります。
func LoadFromReader(r io.Reader) (*Job, error) {
	j := &Job{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(j); err != nil {
		return nil, fmt.Errorf("YAMLのデコードに失敗しました: %w", err)
	}
	if j.StartRow == 0 {
		j.StartRow = script.DefaultStartRow
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// Validate は Job の必須項目を検証し、見つかった問題をすべてまとめて返します。
func (j *Job) Validate() error {
	var errs []error
	if strings.TrimSpace(j.Script) == "" {
		errs = append(errs, errors.New("script が指定されていません"))
	}
	if strings.TrimSpace(j.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir が指定されていません"))
	}
	for key, col := range map[string]string{
		"columns.character": j.Columns.Character,
		"columns.dialogue":  j.Columns.Dialogue,
		"columns.filename":  j.Columns.Filename,
	} {
		if strings.TrimSpace(col) == "" {
			errs = append(errs, fmt.Errorf("%s が指定されていません", key))
		}
	}
	if j.StartRow < 1 {
		errs = append(errs, fmt.Errorf("start_row は1以上を指定してください (%d)", j.StartRow))
	}
	if len(j.Characters) == 0 {
		errs = append(errs, errors.New("characters にボイスの割り当てがありません"))
	}
	for i, c := range j.Characters {
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("characters[%d].name が空です", i))
		}
		if c.Voice == "" && c.Speaker == "" {
			errs = append(errs, fmt.Errorf("characters[%d] (%s) に voice または speaker を指定してください", i, c.Name))
		}
	}
	return errors.Join(errs...)
}

// ScriptColumns は script パッケージ向けの列割り当てを返します。
func (j *Job) ScriptColumns() script.Columns {
	return script.Columns{
		Character: j.Columns.Character,
		Dialogue:  j.Columns.Dialogue,
		Filename:  j.Columns.Filename,
	}
}

// ----------------------------------------------------------------------
// ボイス割り当ての解決
// ----------------------------------------------------------------------

// VoiceResolver は表示名から単一階層のボイスIDを解決します。catalog.Catalog がこれを満たします。
type VoiceResolver interface {
	ResolveVoiceID(nameOrID string) (string, error)
}

// Assignments は characters を宣言順の task.Assignments に変換します。
// 単一階層のバックエンドでは voice をカタログでボイスIDに解決し、解決できなければエラーを返します。
// 話者/スタイル階層の検証はタスク構築時に行われます。
func (j *Job) Assignments(kind synth.Kind, voices VoiceResolver) (task.Assignments, error) {
	var as task.Assignments
	for _, c := range j.Characters {
		if kind.TwoTier() {
			if c.Speaker == "" {
				return nil, fmt.Errorf("キャラクター '%s' に speaker が指定されていません (%s)", c.Name, kind)
			}
			as.Add(c.Name, task.VoiceRef{SpeakerName: c.Speaker, StyleName: c.Style})
			continue
		}

		if c.Voice == "" {
			return nil, fmt.Errorf("キャラクター '%s' に voice が指定されていません (%s)", c.Name, kind)
		}
		id, err := voices.ResolveVoiceID(c.Voice)
		if err != nil {
			return nil, fmt.Errorf("キャラクター '%s' のボイス解決に失敗しました: %w", c.Name, err)
		}
		as.Add(c.Name, task.VoiceRef{VoiceID: id})
	}
	return as, nil
}
