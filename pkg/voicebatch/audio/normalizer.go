// Package audio は合成された音声を出力用の標準WAV形式 (16bit / 44100Hz / ステレオ) に正規化します。
package audio

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// Format は入力音声のエンコード形式のヒントです。
type Format int

const (
	// FormatUnknown は先頭バイトから形式を推定します。
	FormatUnknown Format = iota
	// FormatMP3 はMP3などの圧縮形式です (ElevenLabs の既定出力)。
	FormatMP3
	// FormatWAV は非標準サンプリングレートのPCM WAVです (VOICEVOX は 24000Hz モノラル)。
	FormatWAV
)

func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "mp3"
	case FormatWAV:
		return "wav"
	default:
		return "unknown"
	}
}

// Sniff は先頭バイトから音声形式を推定します。判別できなければ FormatUnknown を返します。
func Sniff(data []byte) Format {
	switch {
	case len(data) >= WavRiffHeaderSize && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	default:
		return FormatUnknown
	}
}

// ----------------------------------------------------------------------
// Normalizer
// ----------------------------------------------------------------------

// Normalizer は任意の入力音声を標準WAVに変換します。
// 1回の呼び出しで保持するのは1クリップ分のデータのみです。
type Normalizer struct {
	quality int
}

// NormalizerOption は Normalizer の設定を変更する関数です。
type NormalizerOption func(*Normalizer)

// WithResampleQuality は再サンプリング品質 (1-64) を設定します。範囲外の値は無視されます。
func WithResampleQuality(q int) NormalizerOption {
	return func(n *Normalizer) {
		if q >= 1 && q <= 64 {
			n.quality = q
		}
	}
}

// NewNormalizer は新しい Normalizer を作成します。
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{quality: DefaultResampleQuality}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize は raw をデコードし、44100Hz へ再サンプリングして 16bit ステレオのWAVとして返します。
// モノラル入力は両チャンネルに複製されます。デコードできない場合は *ErrConversion を返します。
func (n *Normalizer) Normalize(raw []byte, hint Format) ([]byte, error) {
	if len(raw) == 0 {
		return nil, &ErrConversion{Format: hint, Details: "音声データが空です"}
	}

	format := hint
	if format == FormatUnknown {
		format = Sniff(raw)
		if format == FormatUnknown {
			return nil, &ErrConversion{Format: hint, Details: "音声形式を判別できません"}
		}
	}

	streamer, srcFormat, err := decode(raw, format)
	if err != nil {
		return nil, &ErrConversion{Format: format, Details: "デコードに失敗しました", WrappedErr: err}
	}
	defer streamer.Close()

	if srcFormat.SampleRate <= 0 {
		return nil, &ErrConversion{Format: format, Details: "サンプリングレートが不正です"}
	}

	target := beep.SampleRate(CanonicalSampleRate)
	var source beep.Streamer = streamer
	if srcFormat.SampleRate != target {
		slog.Debug("音声を再サンプリングします", "from", int(srcFormat.SampleRate), "to", CanonicalSampleRate, "channels", srcFormat.NumChannels)
		source = beep.Resample(n.quality, srcFormat.SampleRate, target, streamer)
	}

	out := &writeSeeker{}
	outFormat := beep.Format{
		SampleRate:  target,
		NumChannels: CanonicalChannels,
		Precision:   CanonicalBitDepth / 8,
	}
	if err := wav.Encode(out, source, outFormat); err != nil {
		return nil, &ErrConversion{Format: format, Details: "WAVエンコードに失敗しました", WrappedErr: err}
	}
	if err := streamer.Err(); err != nil {
		return nil, &ErrConversion{Format: format, Details: "デコード中にエラーが発生しました", WrappedErr: err}
	}

	return out.Bytes(), nil
}

func decode(raw []byte, format Format) (beep.StreamSeekCloser, beep.Format, error) {
	switch format {
	case FormatWAV:
		return wav.Decode(bytes.NewReader(raw))
	default:
		return mp3.Decode(io.NopCloser(bytes.NewReader(raw)))
	}
}

// ----------------------------------------------------------------------
// メモリ上の io.WriteSeeker (wav.Encode がヘッダーを書き戻すために必要)
// ----------------------------------------------------------------------

type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if end > len(w.buf) {
		if end > cap(w.buf) {
			grown := make([]byte, end, 2*end)
			copy(grown, w.buf)
			w.buf = grown
		} else {
			w.buf = w.buf[:end]
		}
	}
	copy(w.buf[w.pos:end], p)
	w.pos = end
	return len(p), nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = int64(w.pos)
	case io.SeekEnd:
		base = int64(len(w.buf))
	default:
		return 0, errInvalidWhence
	}
	next := base + offset
	if next < 0 {
		return 0, errNegativePosition
	}
	w.pos = int(next)
	return next, nil
}

func (w *writeSeeker) Bytes() []byte {
	return w.buf
}
