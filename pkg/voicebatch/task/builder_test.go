package task

import (
	"errors"
	"slices"
	"testing"
)

// fakeSelector は Classify に渡された台詞を記録し、固定規則でスタイルを返します。
type fakeSelector struct {
	classified []string
}

func (f *fakeSelector) Classify(text string, styles []string) string {
	f.classified = append(f.classified, text)
	if text == "怒ってる" && slices.Contains(styles, "怒り") {
		return "怒り"
	}
	return f.Fallback(styles)
}

func (f *fakeSelector) Fallback(styles []string) string {
	if slices.Contains(styles, "ノーマル") {
		return "ノーマル"
	}
	if len(styles) > 0 {
		return styles[0]
	}
	return "ノーマル"
}

type fakeStyles map[string][]string

func (f fakeStyles) StyleNames(speaker string) ([]string, error) {
	styles, ok := f[speaker]
	if !ok {
		return nil, errors.New("not found")
	}
	return styles, nil
}

func filenames(tasks []SynthesisTask) []string {
	out := make([]string, len(tasks))
	for i, tk := range tasks {
		out[i] = tk.OutputFilename
	}
	return out
}

func TestBuild_OrdersByAssignmentThenRow(t *testing.T) {
	rows := []ScriptRow{
		{Character: "A", Dialogue: "hi", Filename: "f1"},
		{Character: "B", Dialogue: "yo", Filename: "f2"},
		{Character: "A", Dialogue: "bye", Filename: "f3"},
	}
	var as Assignments
	as.Add("A", VoiceRef{VoiceID: "v1"})
	as.Add("B", VoiceRef{VoiceID: "v2"})

	tasks := NewBuilder(nil, nil).Build(rows, as, false)

	want := []string{"f1", "f3", "f2"}
	if got := filenames(tasks); !slices.Equal(got, want) {
		t.Fatalf("task order = %v, want %v", got, want)
	}
	if tasks[2].Voice.VoiceID != "v2" || tasks[2].Character != "B" {
		t.Errorf("unexpected third task: %+v", tasks[2])
	}
}

func TestBuild_ExcludesIneligibleRows(t *testing.T) {
	rows := []ScriptRow{
		{Character: "A", Dialogue: "", Filename: "f1"},
		{Character: "A", Dialogue: "  ", Filename: "f2"},
		{Character: "A", Dialogue: "ok", Filename: ""},
		{Character: "A", Dialogue: "ok", Filename: "  "},
		{Character: " A ", Dialogue: " trimmed ", Filename: " f5 "},
		{Character: "C", Dialogue: "unassigned", Filename: "f6"},
	}
	var as Assignments
	as.Add("A", VoiceRef{VoiceID: "v1"})

	tasks := NewBuilder(nil, nil).Build(rows, as, false)

	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d: %+v", len(tasks), tasks)
	}
	if tasks[0].Dialogue != "trimmed" || tasks[0].OutputFilename != "f5" {
		t.Errorf("expected trimmed fields, got %+v", tasks[0])
	}
}

func TestBuild_CharacterMatchIsCaseSensitive(t *testing.T) {
	rows := []ScriptRow{{Character: "alice", Dialogue: "hi", Filename: "f1"}}
	var as Assignments
	as.Add("Alice", VoiceRef{VoiceID: "v1"})

	if tasks := NewBuilder(nil, nil).Build(rows, as, false); len(tasks) != 0 {
		t.Errorf("expected no tasks for case-mismatched character, got %d", len(tasks))
	}
}

func TestBuild_AutoEmotionOverridesManualStyle(t *testing.T) {
	rows := []ScriptRow{
		{Character: "ずんだもん", Dialogue: "怒ってる", Filename: "f1"},
		{Character: "ずんだもん", Dialogue: "普通", Filename: "f2"},
	}
	var as Assignments
	as.Add("ずんだもん", VoiceRef{SpeakerName: "ずんだもん", StyleName: "あまあま"})
	sel := &fakeSelector{}
	styles := fakeStyles{"ずんだもん": {"ノーマル", "あまあま", "怒り"}}

	tasks := NewBuilder(sel, styles).Build(rows, as, true)

	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Voice.StyleName != "怒り" {
		t.Errorf("expected 怒り, got %q", tasks[0].Voice.StyleName)
	}
	if tasks[1].Voice.StyleName != "ノーマル" {
		t.Errorf("expected ノーマル, got %q", tasks[1].Voice.StyleName)
	}
	if !slices.Equal(sel.classified, []string{"怒ってる", "普通"}) {
		t.Errorf("classifier called with %v", sel.classified)
	}
}

func TestBuild_ManualStyleKeptWithoutAutoEmotion(t *testing.T) {
	rows := []ScriptRow{{Character: "めたん", Dialogue: "怒ってる", Filename: "f1"}}
	var as Assignments
	as.Add("めたん", VoiceRef{SpeakerName: "四国めたん", StyleName: "あまあま"})
	sel := &fakeSelector{}
	styles := fakeStyles{"四国めたん": {"ノーマル", "あまあま", "怒り"}}

	tasks := NewBuilder(sel, styles).Build(rows, as, false)

	if tasks[0].Voice.StyleName != "あまあま" {
		t.Errorf("expected manual style to be kept, got %q", tasks[0].Voice.StyleName)
	}
	if len(sel.classified) != 0 {
		t.Errorf("classifier should not run without autoEmotion")
	}
}

func TestBuild_UnknownManualStyleFallsBack(t *testing.T) {
	rows := []ScriptRow{{Character: "めたん", Dialogue: "hi", Filename: "f1"}}
	var as Assignments
	as.Add("めたん", VoiceRef{SpeakerName: "四国めたん", StyleName: "存在しない"})
	styles := fakeStyles{"四国めたん": {"あまあま", "ノーマル"}}

	tasks := NewBuilder(&fakeSelector{}, styles).Build(rows, as, false)

	if tasks[0].Voice.StyleName != "ノーマル" {
		t.Errorf("expected fallback to ノーマル, got %q", tasks[0].Voice.StyleName)
	}
}

func TestBuild_UnknownSpeakerKeepsRef(t *testing.T) {
	rows := []ScriptRow{{Character: "X", Dialogue: "hi", Filename: "f1"}}
	var as Assignments
	ref := VoiceRef{SpeakerName: "unknown", StyleName: "ノーマル"}
	as.Add("X", ref)

	tasks := NewBuilder(&fakeSelector{}, fakeStyles{}).Build(rows, as, true)

	if len(tasks) != 1 || tasks[0].Voice != ref {
		t.Errorf("expected unchanged ref, got %+v", tasks)
	}
}

func TestAssignments_AddReplacesInPlace(t *testing.T) {
	var as Assignments
	as.Add(" A ", VoiceRef{VoiceID: "v1"})
	as.Add("B", VoiceRef{VoiceID: "v2"})
	as.Add("A", VoiceRef{VoiceID: "v3"})
	as.Add("  ", VoiceRef{VoiceID: "ignored"})

	if len(as) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(as))
	}
	if as[0].Character != "A" || as[0].Voice.VoiceID != "v3" {
		t.Errorf("expected A to be replaced in place, got %+v", as[0])
	}
	if v, ok := as.Lookup("B"); !ok || v.VoiceID != "v2" {
		t.Errorf("Lookup(B) = %+v, %v", v, ok)
	}
}
