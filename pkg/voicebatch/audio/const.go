package audio

// ----------------------------------------------------------------------
// WAV ファイル定数 (動的チャンク探索ベース)
// ----------------------------------------------------------------------

const (
	// RIFF 構造の必須サイズ定数
	RiffChunkIDSize   = 4 // "RIFF" チャンクIDのサイズ
	RiffChunkSizeSize = 4 // ファイルサイズフィールドのサイズ
	WaveIDSize        = 4 // "WAVE" 識別子のサイズ

	// チャンクヘッダー (ID 4 + サイズ 4)
	ChunkIDSize     = 4
	ChunkSizeSize   = 4
	ChunkHeaderSize = ChunkIDSize + ChunkSizeSize

	// PCM fmt チャンク本体の最小サイズ
	FmtChunkMinSize = 16
)

const (
	WavRiffHeaderSize  = RiffChunkIDSize + RiffChunkSizeSize + WaveIDSize // RIFFヘッダーの合計サイズ (12バイト)
	WavTotalHeaderSize = 44                                               // 正規化後の標準ヘッダーサイズ
)

// ----------------------------------------------------------------------
// 正規化フォーマット
// ----------------------------------------------------------------------

const (
	CanonicalSampleRate = 44100
	CanonicalChannels   = 2
	CanonicalBitDepth   = 16

	// Extension は出力ファイルの拡張子です。
	Extension = ".wav"

	// DefaultResampleQuality は beep.Resample に渡す品質 (1-64)。
	DefaultResampleQuality = 4

	// wavFormatPCM は fmt チャンクの AudioFormat (リニアPCM)。
	wavFormatPCM = 1
	// wavFormatExtensible は WAVE_FORMAT_EXTENSIBLE。
	wavFormatExtensible = 0xFFFE
)
