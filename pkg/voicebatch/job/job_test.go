package job

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/catalog"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/script"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/synth"
)

const jobYAML = `
script: scripts/episode1.xlsx
sheet: Scene1
columns:
  character: A
  dialogue: B
  filename: D
output_dir: out
auto_emotion: true
characters:
  - name: めたん
    speaker: 四国めたん
    style: ノーマル
    voice: Rachel
  - name: ずんだもん
    speaker: ずんだもん
    voice: 21m00Tcm4TlvDq8ikWAM
`

type fakeVoices map[string]string

func (f fakeVoices) ResolveVoiceID(nameOrID string) (string, error) {
	for name, id := range f {
		if nameOrID == name || nameOrID == id {
			return id, nil
		}
	}
	return "", &catalog.ErrNotFound{Kind: "voice", Name: nameOrID}
}

func TestLoad_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	if err := os.WriteFile(path, []byte(jobYAML), 0644); err != nil {
		t.Fatal(err)
	}

	j, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if j.Script != filepath.Join(dir, "scripts", "episode1.xlsx") {
		t.Errorf("unexpected script path %s", j.Script)
	}
	if j.OutputDir != filepath.Join(dir, "out") {
		t.Errorf("unexpected output dir %s", j.OutputDir)
	}
	if j.StartRow != script.DefaultStartRow {
		t.Errorf("expected default start row, got %d", j.StartRow)
	}
	if !j.AutoEmotion || j.Sheet != "Scene1" || j.ScriptColumns().Filename != "D" {
		t.Errorf("unexpected job %+v", j)
	}
}

func TestLoadFromReader_RejectsUnknownKeys(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(jobYAML + "autoemotion: true\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("characters:\n  - name: ''\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"script", "output_dir", "columns.character", "characters[0].name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s: %v", want, err)
		}
	}
}

func TestAssignments_TwoTierKeepsOrder(t *testing.T) {
	j, err := LoadFromReader(strings.NewReader(jobYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	as, err := j.Assignments(synth.KindTwoPhase, nil)
	if err != nil {
		t.Fatalf("Assignments: %v", err)
	}
	if len(as) != 2 || as[0].Character != "めたん" || as[1].Character != "ずんだもん" {
		t.Fatalf("unexpected assignments %+v", as)
	}
	if as[0].Voice.SpeakerName != "四国めたん" || as[0].Voice.StyleName != "ノーマル" {
		t.Errorf("unexpected voice %+v", as[0].Voice)
	}
	if as[1].Voice.StyleName != "" {
		t.Errorf("expected empty style to be left for fallback, got %q", as[1].Voice.StyleName)
	}
}

func TestAssignments_SingleTierResolvesNames(t *testing.T) {
	j, err := LoadFromReader(strings.NewReader(jobYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	voices := fakeVoices{"Rachel": "21m00Tcm4TlvDq8ikWAM"}

	as, err := j.Assignments(synth.KindSingleCall, voices)
	if err != nil {
		t.Fatalf("Assignments: %v", err)
	}
	for _, a := range as {
		if a.Voice.VoiceID != "21m00Tcm4TlvDq8ikWAM" || a.Voice.TwoTier() {
			t.Errorf("unexpected voice for %s: %+v", a.Character, a.Voice)
		}
	}

	j.Characters[0].Voice = "Rachael"
	_, err = j.Assignments(synth.KindSingleCall, voices)
	var notFound *catalog.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected *catalog.ErrNotFound, got %v", err)
	}
}
