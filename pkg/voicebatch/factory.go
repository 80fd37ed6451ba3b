// Package voicebatch は設定から合成バックエンドを組み立て、台本からWAVファイルを一括生成するパイプラインを提供します。
package voicebatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/api"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/catalog"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/config"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/elevenlabs"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/synth"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/voicevox"
)

// Backend は合成クライアントと、そのバックエンドから取得したボイスカタログの組です。
type Backend struct {
	Synthesizer synth.Synthesizer
	Catalog     *catalog.Catalog
}

// Kind はバックエンド種別を返します。
func (b *Backend) Kind() synth.Kind {
	return b.Synthesizer.Kind()
}

// NewBackend は cfg に従ってバックエンドのクライアントを初期化し、ボイスカタログを取得します。
// カタログの取得に失敗した場合、バックエンドに接続できないものとしてエラーを返します。
func NewBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	requesterOpts := []api.RequesterOption{
		api.WithRequestInterval(cfg.RequestInterval),
		api.WithMaxRetries(cfg.MaxRetries),
	}

	var (
		synthesizer synth.Synthesizer
		cat         *catalog.Catalog
	)
	switch cfg.Backend {
	case config.BackendVoicevox:
		client := voicevox.NewClient(cfg.VoicevoxAPIURL, cfg.HTTPTimeout,
			voicevox.WithRequesterOptions(requesterOpts...),
			voicevox.WithHealthTimeout(cfg.HealthTimeout),
		)
		cat = catalog.New(client)
		synthesizer = voicevox.NewSynthesizer(client, cat, voicevox.WithMaxSegmentChars(cfg.SegmentMaxChars))

	case config.BackendElevenLabs:
		client := elevenlabs.NewClient(cfg.ElevenLabsAPIKey, cfg.HTTPTimeout,
			elevenlabs.WithAPIURL(cfg.ElevenLabsAPIURL),
			elevenlabs.WithModelID(cfg.ElevenLabsModelID),
			elevenlabs.WithVoiceSettings(cfg.ElevenLabsStability, cfg.ElevenLabsSimilarityBoost),
			elevenlabs.WithRequesterOptions(requesterOpts...),
			elevenlabs.WithHealthTimeout(cfg.HealthTimeout),
		)
		cat = catalog.New(client)
		synthesizer = client

	default:
		return nil, fmt.Errorf("未対応のバックエンドです: %s", cfg.Backend)
	}

	slog.InfoContext(ctx, "ボイスカタログをロード中...", "backend", cfg.Backend)
	if _, err := cat.List(ctx); err != nil {
		return nil, fmt.Errorf("バックエンドへの接続またはボイスカタログのロードに失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "バックエンドの初期化が完了しました。", "backend", cfg.Backend, "voices_count", len(cat.Entries()))

	return &Backend{Synthesizer: synthesizer, Catalog: cat}, nil
}
