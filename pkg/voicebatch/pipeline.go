package voicebatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/batch"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/emotion"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/job"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/script"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/task"
)

// PreviewFilename はプレビュー音声の出力ファイル名です。
const PreviewFilename = "preview.wav"

// Pipeline は台本の行から合成タスクを組み立て、BatchRunner で実行します。
type Pipeline struct {
	backend    *Backend
	builder    *task.Builder
	normalizer batch.Normalizer
	runnerOpts []batch.Option
}

// NewPipeline は新しい Pipeline を作成します。runnerOpts は Run と Preview の各実行に渡されます。
func NewPipeline(backend *Backend, classifier *emotion.Classifier, normalizer batch.Normalizer, runnerOpts ...batch.Option) *Pipeline {
	return &Pipeline{
		backend:    backend,
		builder:    task.NewBuilder(classifier, backend.Catalog),
		normalizer: normalizer,
		runnerOpts: runnerOpts,
	}
}

// Backend はパイプラインが使う合成バックエンドを返します。
func (p *Pipeline) Backend() *Backend {
	return p.backend
}

// Build は行と割り当てからタスクを生成します。割り当てが空の場合は *batch.ErrPrecondition を返します。
// 自動感情判定は話者/スタイル階層を持つバックエンドでのみ有効です。
func (p *Pipeline) Build(rows []task.ScriptRow, assignments task.Assignments, autoEmotion bool) ([]task.SynthesisTask, error) {
	if len(assignments) == 0 {
		return nil, &batch.ErrPrecondition{Reason: "ボイスが割り当てられたキャラクターがありません"}
	}
	return p.builder.Build(rows, assignments, autoEmotion && p.backend.Kind().TwoTier()), nil
}

// TasksForJob はジョブの台本を読み込み、ボイス割り当てを解決してタスクを生成します。
func (p *Pipeline) TasksForJob(j *job.Job) ([]task.SynthesisTask, error) {
	rows, err := LoadRows(j)
	if err != nil {
		return nil, err
	}
	assignments, err := j.Assignments(p.backend.Kind(), p.backend.Catalog)
	if err != nil {
		return nil, err
	}
	tasks, err := p.Build(rows, assignments, j.AutoEmotion)
	if err != nil {
		return nil, err
	}
	slog.Info("合成タスクを作成しました", "rows", len(rows), "characters", len(assignments), "tasks", len(tasks))
	return tasks, nil
}

// Run は tasks を outputDir に出力します。
func (p *Pipeline) Run(ctx context.Context, tasks []task.SynthesisTask, outputDir string, opts ...batch.Option) (*batch.Result, error) {
	runner := batch.NewRunner(p.backend.Synthesizer, p.normalizer, outputDir, append(slices.Clone(p.runnerOpts), opts...)...)
	return runner.Run(ctx, tasks)
}

// Preview は character の最初の台詞だけを合成し、outputDir/preview.wav に書き出してそのパスを返します。
func (p *Pipeline) Preview(ctx context.Context, rows []task.ScriptRow, assignments task.Assignments, character string, outputDir string, autoEmotion bool) (string, error) {
	voice, ok := assignments.Lookup(character)
	if !ok {
		return "", &batch.ErrPrecondition{Reason: fmt.Sprintf("キャラクター '%s' にボイスが割り当てられていません", character)}
	}

	var single task.Assignments
	single.Add(character, voice)
	tasks, err := p.Build(rows, single, autoEmotion)
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "", &batch.ErrPrecondition{Reason: fmt.Sprintf("キャラクター '%s' の台詞が見つかりません", character)}
	}

	preview := tasks[0]
	preview.OutputFilename = PreviewFilename
	res, err := p.Run(ctx, []task.SynthesisTask{preview}, outputDir)
	if err != nil {
		return "", err
	}
	if res.ErrorCount > 0 {
		return "", fmt.Errorf("プレビューの合成に失敗しました: %s", res.Errors[0].Message)
	}
	return filepath.Join(outputDir, PreviewFilename), nil
}

// LoadRows はジョブで指定された台本のシートを開き、全データ行を返します。
func LoadRows(j *job.Job) ([]task.ScriptRow, error) {
	wb, err := script.Open(j.Script)
	if err != nil {
		return nil, err
	}
	if j.Sheet != "" {
		if err := wb.SelectSheet(j.Sheet); err != nil {
			return nil, err
		}
	}
	return wb.Rows(j.ScriptColumns(), j.StartRow)
}
