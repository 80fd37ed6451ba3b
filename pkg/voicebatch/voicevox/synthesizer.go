// Package voicevox はVOICEVOXエンジン (クエリ生成と音声合成の二段階API) のクライアントを提供します。
package voicevox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/api"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/audio"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/synth"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/task"
)

// Synthesizer は synth.Synthesizer の二段階型実装です。
// (話者名, スタイル名) を直近のカタログでスタイルIDに解決してから合成します。
type Synthesizer struct {
	client   AudioQueryClient
	resolver StyleResolver
	maxChars int
}

// SynthesizerOption は Synthesizer の設定を変更する関数です。
type SynthesizerOption func(*Synthesizer)

// WithMaxSegmentChars は1リクエストあたりの最大文字数を設定します。0 以下で分割しません。
func WithMaxSegmentChars(n int) SynthesizerOption {
	return func(s *Synthesizer) {
		s.maxChars = n
	}
}

// NewSynthesizer は新しい Synthesizer を作成します。
func NewSynthesizer(client AudioQueryClient, resolver StyleResolver, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		client:   client,
		resolver: resolver,
		maxChars: DefaultMaxSegmentChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ synth.Synthesizer = (*Synthesizer)(nil)

func (s *Synthesizer) Kind() synth.Kind { return synth.KindTwoPhase }

func (s *Synthesizer) SourceFormat() audio.Format { return audio.FormatWAV }

func (s *Synthesizer) HealthCheck(ctx context.Context) bool { return s.client.HealthCheck(ctx) }

// Synthesize は text を合成し、WAVデータを返します。
// 長い台詞は句読点で分割して各セグメントを合成し、1つのWAVに結合します。
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice task.VoiceRef) ([]byte, error) {
	styleID, err := s.resolver.ResolveStyleID(voice.SpeakerName, voice.StyleName)
	if err != nil {
		return nil, err
	}

	segments := splitText(text, s.maxChars)
	if len(segments) == 0 {
		return nil, &api.ErrSynthesis{Backend: string(synth.KindTwoPhase), Phase: api.PhaseAudioQuery, WrappedErr: fmt.Errorf("合成するテキストが空です")}
	}
	if len(segments) > 1 {
		slog.DebugContext(ctx, "台詞が長いためセグメントに分割して合成します", "voice", voice.String(), "segments", len(segments))
	}

	wavList := make([][]byte, 0, len(segments))
	for i, seg := range segments {
		wavData, err := s.synthesizeSegment(ctx, seg, styleID)
		if err != nil {
			if len(segments) > 1 {
				return nil, fmt.Errorf("セグメント %d/%d の合成失敗: %w", i+1, len(segments), err)
			}
			return nil, err
		}
		wavList = append(wavList, wavData)
	}

	if len(wavList) == 1 {
		return wavList[0], nil
	}

	combined, err := audio.CombineWAV(wavList)
	if err != nil {
		return nil, &api.ErrSynthesis{Backend: string(synth.KindTwoPhase), Phase: api.PhaseSynthesis, WrappedErr: err}
	}
	return combined, nil
}

// synthesizeSegment は1セグメントに対して /audio_query と /synthesis を順に実行します。
func (s *Synthesizer) synthesizeSegment(ctx context.Context, text string, styleID int) ([]byte, error) {
	queryBody, err := s.client.RunAudioQuery(ctx, text, styleID)
	if err != nil {
		return nil, &api.ErrSynthesis{Backend: string(synth.KindTwoPhase), Phase: api.PhaseAudioQuery, WrappedErr: err}
	}

	wavData, err := s.client.RunSynthesis(ctx, queryBody, styleID)
	if err != nil {
		return nil, &api.ErrSynthesis{Backend: string(synth.KindTwoPhase), Phase: api.PhaseSynthesis, WrappedErr: err}
	}
	return wavData, nil
}
