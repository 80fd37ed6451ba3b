package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-voice-batch/pkg/voicebatch"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/api"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/audio"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/batch"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/config"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/emotion"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/job"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/script"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/task"
)

// progressEvent は実行中のタスク1件の進捗です。
type progressEvent struct {
	index, total int
	filename     string
}

func main() {
	var (
		jobPath        = flag.String("job", "job.yaml", "ジョブ定義 (YAML) のパス")
		envFile        = flag.String("env", ".env", "環境変数ファイルのパス (存在しなければ無視)")
		listCharacters = flag.Bool("list-characters", false, "台本のキャラクター一覧を表示して終了")
		listVoices     = flag.Bool("list-voices", false, "バックエンドのボイス一覧を表示して終了")
		preview        = flag.String("preview", "", "指定キャラクターの最初の台詞だけを合成して終了")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("設定の読み込みに失敗しました。", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *jobPath, *listCharacters, *listVoices, *preview); err != nil {
		slog.Error("処理に失敗しました。", "error", err)
		var unavailable *api.ErrBackendUnavailable
		if errors.As(err, &unavailable) {
			slog.Error("合成バックエンドが起動しているか、またはAPI URLが正しいか確認してください。", "backend", cfg.Backend)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, jobPath string, listCharacters, listVoices bool, preview string) error {
	if listVoices {
		backend, err := voicebatch.NewBackend(ctx, cfg)
		if err != nil {
			return err
		}
		printVoices(backend)
		return nil
	}

	j, err := job.Load(jobPath)
	if err != nil {
		return err
	}
	if listCharacters {
		return printCharacters(j)
	}

	backend, err := voicebatch.NewBackend(ctx, cfg)
	if err != nil {
		return err
	}

	metrics, err := batch.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("メトリクスの初期化に失敗しました: %w", err)
	}
	pipeline := voicebatch.NewPipeline(backend,
		emotion.NewClassifier(emotion.DefaultTable),
		audio.NewNormalizer(audio.WithResampleQuality(cfg.ResampleQuality)),
		batch.WithMetrics(metrics),
		batch.WithTaskTimeout(cfg.TaskTimeout),
	)

	if preview != "" {
		return runPreview(ctx, pipeline, j, preview)
	}

	tasks, err := pipeline.TasksForJob(j)
	if err != nil {
		return err
	}
	slog.Info("以下の件数の音声を生成します。", "tasks", len(tasks), "output_dir", j.OutputDir, "auto_emotion", j.AutoEmotion)

	return runBatch(ctx, pipeline, tasks, j.OutputDir)
}

// runBatch はパイプラインを別ゴルーチンで実行し、進捗をチャネル経由で表示します。
func runBatch(ctx context.Context, pipeline *voicebatch.Pipeline, tasks []task.SynthesisTask, outputDir string) error {
	progress := make(chan progressEvent, 1)
	var result *batch.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(progress)
		res, err := pipeline.Run(gctx, tasks, outputDir, batch.WithProgress(func(index, total int, filename string) {
			progress <- progressEvent{index: index, total: total, filename: filename}
		}))
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	g.Go(func() error {
		for ev := range progress {
			fmt.Printf("[%d/%d] %s\n", ev.index, ev.total, ev.filename)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("音声生成が完了しました。", "success", result.SuccessCount, "errors", result.ErrorCount, "cancelled", result.Cancelled)
	for _, e := range result.Errors {
		slog.Warn("生成に失敗したファイル", "filename", e.Filename, "message", e.Message)
	}
	return nil
}

func runPreview(ctx context.Context, pipeline *voicebatch.Pipeline, j *job.Job, character string) error {
	rows, err := voicebatch.LoadRows(j)
	if err != nil {
		return err
	}
	backend := pipeline.Backend()
	assignments, err := j.Assignments(backend.Kind(), backend.Catalog)
	if err != nil {
		return err
	}
	path, err := pipeline.Preview(ctx, rows, assignments, character, j.OutputDir, j.AutoEmotion)
	if err != nil {
		return err
	}
	slog.Info("プレビュー音声を書き出しました。", "character", character, "path", path)
	return nil
}

func printCharacters(j *job.Job) error {
	wb, err := script.Open(j.Script)
	if err != nil {
		return err
	}
	if j.Sheet != "" {
		if err := wb.SelectSheet(j.Sheet); err != nil {
			return err
		}
	}
	names, err := wb.UniqueValues(j.Columns.Character, j.StartRow)
	if err != nil {
		return err
	}
	fmt.Printf("シート: %s (列: %v)\n", wb.Selected(), wb.ColumnLetters())
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func printVoices(backend *voicebatch.Backend) {
	for _, e := range backend.Catalog.Entries() {
		if backend.Kind().TwoTier() {
			fmt.Printf("%s: %v\n", e.DisplayName, e.StyleNames())
			continue
		}
		fmt.Printf("%s (%s)\n", e.DisplayName, e.VoiceID)
	}
}
