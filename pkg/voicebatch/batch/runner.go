// Package batch は合成タスクを1件ずつ順番に実行し、結果を集計します。
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/api"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/audio"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/synth"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/task"
)

// DefaultTaskTimeout は1タスクあたりの上限時間です。
const DefaultTaskTimeout = 300 * time.Second

// ProgressFunc はタスクの処理を始める直前に呼ばれます。index は1始まりです。
type ProgressFunc func(index, total int, filename string)

// Normalizer は合成された生の音声を出力形式のWAVに変換します。
// audio.Normalizer がこれを満たします。
type Normalizer interface {
	Normalize(raw []byte, hint audio.Format) ([]byte, error)
}

// Runner はタスクを逐次実行するバッチランナーです。
type Runner struct {
	client      synth.Synthesizer
	normalizer  Normalizer
	outputDir   string
	progress    ProgressFunc
	metrics     *Metrics
	taskTimeout time.Duration
	healthCheck bool
}

// Option は Runner の設定を変更する関数です。
type Option func(*Runner)

// WithProgress は進捗コールバックを設定します。
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithMetrics は計測器を設定します。
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithTaskTimeout は1タスクあたりの上限時間を設定します。
func WithTaskTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.taskTimeout = d
		}
	}
}

// WithoutHealthCheck は開始前のヘルスチェックを省略します。
func WithoutHealthCheck() Option {
	return func(r *Runner) {
		r.healthCheck = false
	}
}

// NewRunner は新しい Runner を作成します。
func NewRunner(client synth.Synthesizer, normalizer Normalizer, outputDir string, opts ...Option) *Runner {
	r := &Runner{
		client:      client,
		normalizer:  normalizer,
		outputDir:   outputDir,
		progress:    func(int, int, string) {},
		metrics:     noopMetrics(),
		taskTimeout: DefaultTaskTimeout,
		healthCheck: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ----------------------------------------------------------------------
// メイン処理
// ----------------------------------------------------------------------

// Run は tasks を与えられた順に1件ずつ実行します。
//
// 個々のタスクの失敗は Result に記録され、残りのタスクは続行されます。
// エラーを返すのは開始前の前提条件違反 (*ErrPrecondition) と、
// バックエンドに到達できない場合 (*api.ErrBackendUnavailable) だけです。
// ctx のキャンセルはタスクの合間にのみ確認し、実行中のタスクは完了まで続けます。
func (r *Runner) Run(ctx context.Context, tasks []task.SynthesisTask) (*Result, error) {
	if len(tasks) == 0 {
		return nil, &ErrPrecondition{Reason: "合成タスクがありません"}
	}
	// 出力ディレクトリはヘルスチェック通過後に作成する
	if r.healthCheck && !r.client.HealthCheck(ctx) {
		return nil, &api.ErrBackendUnavailable{
			Endpoint:   string(r.client.Kind()),
			WrappedErr: errors.New("ヘルスチェックに失敗しました。バックエンドが起動しているか確認してください"),
		}
	}
	if err := prepareOutputDir(r.outputDir); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "音声合成バッチ処理開始", "backend", r.client.Kind(), "total_tasks", len(tasks), "output_dir", r.outputDir)

	result := &Result{}
	total := len(tasks)
	for i, t := range tasks {
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "バッチ処理がキャンセルされました", "attempted", result.Attempted(), "total_tasks", total)
			result.Cancelled = true
			break
		}

		r.progress(i+1, total, t.OutputFilename)

		start := time.Now()
		outcome := r.runTask(ctx, t)
		r.metrics.observe(ctx, time.Since(start), outcome.err)

		if outcome.err != nil {
			slog.WarnContext(ctx, "タスクの処理に失敗しました", "index", i+1, "filename", outcome.filename, "error", outcome.err)
		} else {
			slog.DebugContext(ctx, "タスク完了", "index", i+1, "path", outcome.path)
		}
		result.record(outcome)
	}

	slog.InfoContext(ctx, "音声合成バッチ処理終了",
		"success", result.SuccessCount,
		"errors", result.ErrorCount,
		"cancelled", result.Cancelled)
	return result, nil
}

// runTask は1タスク分の合成・変換・書き込みを行います。
// 親のキャンセルを引き継がず、タスクごとのタイムアウトのみで打ち切ります。
func (r *Runner) runTask(ctx context.Context, t task.SynthesisTask) taskOutcome {
	filename := CoerceFilename(t.OutputFilename)
	outcome := taskOutcome{filename: filename}

	path, err := r.outputPath(filename)
	if err != nil {
		outcome.err = err
		return outcome
	}

	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.taskTimeout)
	defer cancel()

	raw, err := r.client.Synthesize(taskCtx, t.Dialogue, t.Voice)
	if err != nil {
		outcome.err = err
		return outcome
	}

	wav, err := r.normalizer.Normalize(raw, r.client.SourceFormat())
	if err != nil {
		outcome.err = err
		return outcome
	}

	if dir := filepath.Dir(path); dir != filepath.Clean(r.outputDir) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			outcome.err = fmt.Errorf("出力ディレクトリの作成に失敗しました (%s): %w", dir, err)
			return outcome
		}
	}
	if err := os.WriteFile(path, wav, 0644); err != nil {
		outcome.err = fmt.Errorf("ファイルの書き込みに失敗しました: %w", err)
		return outcome
	}

	outcome.path = path
	return outcome
}

// outputPath は出力ディレクトリ内に収まるパスだけを許可します。
func (r *Runner) outputPath(filename string) (string, error) {
	if !filepath.IsLocal(filename) {
		return "", fmt.Errorf("出力ファイル名 '%s' は出力ディレクトリの外を指しています", filename)
	}
	return filepath.Join(r.outputDir, filename), nil
}

// ----------------------------------------------------------------------
// ヘルパー関数
// ----------------------------------------------------------------------

// CoerceFilename は拡張子が .wav (大文字小文字を区別しない) でなければ .wav を付加します。
func CoerceFilename(name string) string {
	name = strings.TrimSpace(name)
	if strings.EqualFold(filepath.Ext(name), audio.Extension) {
		return name
	}
	return name + audio.Extension
}

// prepareOutputDir は出力ディレクトリを作成し、書き込み可能かを確認します。
func prepareOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return &ErrPrecondition{Reason: "出力ディレクトリが指定されていません"}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &ErrPrecondition{Reason: fmt.Sprintf("出力ディレクトリ '%s' を作成できません", dir), WrappedErr: err}
	}

	probe, err := os.CreateTemp(dir, ".voicebatch-probe-*")
	if err != nil {
		return &ErrPrecondition{Reason: fmt.Sprintf("出力ディレクトリ '%s' に書き込めません", dir), WrappedErr: err}
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return nil
}
