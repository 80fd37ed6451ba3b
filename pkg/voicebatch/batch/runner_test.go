package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/api"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/audio"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/synth"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/task"
)

// fakeSynth は台詞 "boom" で失敗する合成バックエンドです。
type fakeSynth struct {
	healthy  bool
	calls    int
	events   *[]string
	onCall   func(n int)
	ctxErrs  []error
	response []byte
}

func (f *fakeSynth) Kind() synth.Kind { return synth.KindTwoPhase }
func (f *fakeSynth) SourceFormat() audio.Format { return audio.FormatWAV }
func (f *fakeSynth) HealthCheck(context.Context) bool {
	return f.healthy
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, voice task.VoiceRef) ([]byte, error) {
	f.calls++
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.events != nil {
		*f.events = append(*f.events, "synth:"+text)
	}
	if f.onCall != nil {
		f.onCall(f.calls)
	}
	if text == "boom" {
		return nil, &api.ErrSynthesis{Backend: "voicevox", Phase: api.PhaseSynthesis, WrappedErr: &api.ErrAPIResponse{Endpoint: "/synthesis", StatusCode: 500, Body: "engine error"}}
	}
	if f.response != nil {
		return f.response, nil
	}
	return audio.EncodePCM(audio.CanonicalSampleRate, audio.CanonicalChannels, audio.CanonicalBitDepth, []byte{1, 0, 1, 0}), nil
}

// passNormalizer は入力をそのまま返します。
type passNormalizer struct{}

func (passNormalizer) Normalize(raw []byte, hint audio.Format) ([]byte, error) { return raw, nil }

func makeTasks(n int) []task.SynthesisTask {
	tasks := make([]task.SynthesisTask, n)
	for i := range tasks {
		tasks[i] = task.SynthesisTask{
			Character:      "A",
			Voice:          task.VoiceRef{SpeakerName: "ずんだもん", StyleName: "ノーマル"},
			Dialogue:       fmt.Sprintf("台詞%02d", i+1),
			OutputFilename: fmt.Sprintf("line%02d", i+1),
		}
	}
	return tasks
}

func TestRun_IsolatesTaskFailure(t *testing.T) {
	dir := t.TempDir()
	tasks := makeTasks(5)
	tasks[2].Dialogue = "boom"
	client := &fakeSynth{healthy: true}

	res, err := NewRunner(client, passNormalizer{}, dir).Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if client.calls != 5 {
		t.Errorf("expected all 5 tasks attempted, got %d", client.calls)
	}
	if res.SuccessCount != 4 || res.ErrorCount != 1 {
		t.Fatalf("expected 4 successes and 1 error, got %+v", res)
	}
	if res.Errors[0].Filename != "line03.wav" {
		t.Errorf("expected failure recorded for line03.wav, got %q", res.Errors[0].Filename)
	}
	if !strings.Contains(res.Errors[0].Message, "500") {
		t.Errorf("expected message to carry backend status, got %q", res.Errors[0].Message)
	}
	for _, name := range []string{"line01.wav", "line02.wav", "line04.wav", "line05.wav"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "line03.wav")); !os.IsNotExist(err) {
		t.Errorf("expected line03.wav not to exist, got %v", err)
	}
}

func TestRun_CancelBetweenTasks(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeSynth{healthy: true, onCall: func(n int) {
		if n == 3 {
			cancel()
		}
	}}

	res, err := NewRunner(client, passNormalizer{}, dir).Run(ctx, makeTasks(10))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Cancelled {
		t.Error("expected cancelled marker")
	}
	if res.Attempted() != 3 || res.SuccessCount != 3 {
		t.Errorf("expected exactly 3 attempts, got %+v", res)
	}
	if client.calls != 3 {
		t.Errorf("expected 3 synthesis calls, got %d", client.calls)
	}
	for i, e := range client.ctxErrs {
		if e != nil {
			t.Errorf("task %d saw a cancelled context: %v", i+1, e)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "line03.wav")); err != nil {
		t.Errorf("expected in-flight task to finish writing: %v", err)
	}
}

func TestRun_FilenameCoercion(t *testing.T) {
	dir := t.TempDir()
	tasks := makeTasks(3)
	tasks[0].OutputFilename = "line01"
	tasks[1].OutputFilename = "line02.WAV"
	tasks[2].OutputFilename = "scene1/line03"

	res, err := NewRunner(&fakeSynth{healthy: true}, passNormalizer{}, dir).Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.SuccessCount != 3 {
		t.Fatalf("expected 3 successes, got %+v", res)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if got := strings.Join(names, ","); got != "line01.wav,line02.WAV,scene1" {
		t.Errorf("unexpected output entries %s", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "scene1", "line03.wav")); err != nil {
		t.Errorf("expected nested file: %v", err)
	}
}

func TestCoerceFilename(t *testing.T) {
	tests := map[string]string{
		"line01":     "line01.wav",
		"line02.WAV": "line02.WAV",
		"line03.wav": "line03.wav",
		"take.mp3":   "take.mp3.wav",
		" padded ":   "padded.wav",
	}
	for in, want := range tests {
		if got := CoerceFilename(in); got != want {
			t.Errorf("CoerceFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRun_ProgressFiresBeforeEachTask(t *testing.T) {
	var events []string
	client := &fakeSynth{healthy: true, events: &events}
	progress := func(index, total int, filename string) {
		events = append(events, fmt.Sprintf("progress:%d/%d:%s", index, total, filename))
	}

	_, err := NewRunner(client, passNormalizer{}, t.TempDir(), WithProgress(progress)).Run(context.Background(), makeTasks(2))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"progress:1/2:line01", "synth:台詞01", "progress:2/2:line02", "synth:台詞02"}
	if strings.Join(events, "|") != strings.Join(want, "|") {
		t.Errorf("unexpected event order:\n got %v\nwant %v", events, want)
	}
}

func TestRun_Preconditions(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		dir   string
		tasks []task.SynthesisTask
	}{
		{"empty tasks", t.TempDir(), nil},
		{"output dir is a file", file, makeTasks(1)},
		{"no output dir", "", makeTasks(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeSynth{healthy: true}
			called := false
			r := NewRunner(client, passNormalizer{}, tt.dir, WithProgress(func(int, int, string) { called = true }))

			res, err := r.Run(context.Background(), tt.tasks)
			var pre *ErrPrecondition
			if !errors.As(err, &pre) {
				t.Fatalf("expected *ErrPrecondition, got %v", err)
			}
			if res != nil || client.calls != 0 || called {
				t.Errorf("expected nothing to run, got result=%v calls=%d progress=%v", res, client.calls, called)
			}
		})
	}
}

func TestRun_HealthCheckFailure(t *testing.T) {
	dir := t.TempDir()
	client := &fakeSynth{healthy: false}

	_, err := NewRunner(client, passNormalizer{}, dir).Run(context.Background(), makeTasks(3))
	var unavailable *api.ErrBackendUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected *api.ErrBackendUnavailable, got %v", err)
	}
	if client.calls != 0 {
		t.Errorf("expected no synthesis calls, got %d", client.calls)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("expected no files written, got %d", len(entries))
	}

	missing := filepath.Join(dir, "out")
	if _, err := NewRunner(client, passNormalizer{}, missing).Run(context.Background(), makeTasks(1)); !errors.As(err, &unavailable) {
		t.Fatalf("expected *api.ErrBackendUnavailable, got %v", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("expected output dir not to be created, stat err=%v", err)
	}

	res, err := NewRunner(client, passNormalizer{}, dir, WithoutHealthCheck()).Run(context.Background(), makeTasks(1))
	if err != nil || res.SuccessCount != 1 {
		t.Errorf("expected run without health check to succeed, got %+v, %v", res, err)
	}
}

func TestRun_RejectsPathsOutsideOutputDir(t *testing.T) {
	dir := t.TempDir()
	tasks := makeTasks(2)
	tasks[0].OutputFilename = "../escape"

	res, err := NewRunner(&fakeSynth{healthy: true}, passNormalizer{}, dir).Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ErrorCount != 1 || res.SuccessCount != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.wav")); !os.IsNotExist(err) {
		t.Errorf("expected nothing written outside output dir, got %v", err)
	}
}

func TestRun_NormalizesToCanonicalWAV(t *testing.T) {
	dir := t.TempDir()
	pcm := make([]byte, 2400*2)
	client := &fakeSynth{healthy: true, response: audio.EncodePCM(24000, 1, 16, pcm)}

	res, err := NewRunner(client, audio.NewNormalizer(), dir).Run(context.Background(), makeTasks(1))
	if err != nil || res.SuccessCount != 1 {
		t.Fatalf("Run: %+v, %v", res, err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "line01.wav"))
	if err != nil {
		t.Fatal(err)
	}
	info, err := audio.Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !info.Canonical() {
		t.Errorf("expected canonical output, got %+v", info)
	}
}

func TestRun_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	tasks := makeTasks(3)
	tasks[1].Dialogue = "boom"
	if _, err := NewRunner(&fakeSynth{healthy: true}, passNormalizer{}, t.TempDir(), WithMetrics(m)).Run(context.Background(), tasks); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	counts := map[string]int64{}
	var histogramCount uint64
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			switch data := met.Data.(type) {
			case metricdata.Sum[int64]:
				if met.Name != "voicebatch.tasks" {
					continue
				}
				for _, dp := range data.DataPoints {
					status, _ := dp.Attributes.Value(attribute.Key("status"))
					counts[status.AsString()] += dp.Value
				}
			case metricdata.Histogram[float64]:
				if met.Name != "voicebatch.task.duration" {
					continue
				}
				for _, dp := range data.DataPoints {
					histogramCount += dp.Count
				}
			}
		}
	}
	if counts[statusSuccess] != 2 || counts[statusError] != 1 {
		t.Errorf("unexpected task counts %v", counts)
	}
	if histogramCount != 3 {
		t.Errorf("expected 3 duration observations, got %d", histogramCount)
	}
}
