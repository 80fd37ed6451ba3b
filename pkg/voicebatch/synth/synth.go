// Package synth は音声合成バックエンドの共通契約を定義します。
// バッチ処理やタスク構築はこのインターフェースにのみ依存し、バックエンドごとの差異は実装側に閉じ込めます。
package synth

import (
	"context"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/audio"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/task"
)

// Kind はバックエンドの種別タグです。
type Kind string

const (
	// KindSingleCall はテキストとボイスIDを1回のリクエストで送る型 (ElevenLabs)。
	KindSingleCall Kind = "elevenlabs"
	// KindTwoPhase はクエリ生成と音声合成の2段階で呼び出す型 (VOICEVOX)。
	KindTwoPhase Kind = "voicevox"
)

// TwoTier は話者/スタイルの2階層を持つバックエンドかどうかを返します。
func (k Kind) TwoTier() bool { return k == KindTwoPhase }

// Synthesizer はテキストを生の音声バイト列に変換する能力を抽象化します。
type Synthesizer interface {
	// Kind はバックエンド種別を返します。
	Kind() Kind
	// SourceFormat は Synthesize が返す音声のエンコード形式を返します。
	SourceFormat() audio.Format
	// Synthesize は text を voice で合成し、生の音声データを返します。
	Synthesize(ctx context.Context, text string, voice task.VoiceRef) ([]byte, error)
	// HealthCheck は短いタイムアウト内にバックエンドが成功応答を返すかを確認します。
	HealthCheck(ctx context.Context) bool
}
