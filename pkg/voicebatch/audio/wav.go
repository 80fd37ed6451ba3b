package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Info はWAVファイルの fmt チャンクと data チャンクから読み取った情報です。
type Info struct {
	AudioFormat   int
	Channels      int
	SampleRate    int
	BitsPerSample int
	DataSize      int
}

// Canonical は正規化後の出力フォーマット (16bit / 44100Hz / ステレオ / PCM) と一致するかを返します。
func (i Info) Canonical() bool {
	return i.AudioFormat == wavFormatPCM &&
		i.Channels == CanonicalChannels &&
		i.SampleRate == CanonicalSampleRate &&
		i.BitsPerSample == CanonicalBitDepth
}

// ----------------------------------------------------------------------
// 公開ロジック
// ----------------------------------------------------------------------

// Inspect はWAVデータのチャンクを走査し、フォーマット情報を返します。
func Inspect(wavBytes []byte) (Info, error) {
	info, _, err := parseWAV(wavBytes, -1)
	return info, err
}

// CombineWAV は同一フォーマットの複数のWAVデータを結合し、正しいヘッダーを持つ単一のWAVを生成します。
// LISTなどのメタデータチャンクは取り除かれます。
func CombineWAV(clips [][]byte) ([]byte, error) {
	if len(clips) == 0 {
		return nil, &ErrNoAudioData{}
	}

	first, firstData, err := parseWAV(clips[0], 0)
	if err != nil {
		return nil, fmt.Errorf("最初のWAVファイルの解析に失敗しました: %w", err)
	}
	if len(clips) == 1 {
		return EncodePCM(first.SampleRate, first.Channels, first.BitsPerSample, firstData), nil
	}

	var audioData bytes.Buffer
	audioData.Write(firstData)

	for i := 1; i < len(clips); i++ {
		info, data, err := parseWAV(clips[i], i)
		if err != nil {
			return nil, fmt.Errorf("WAVファイル #%d の解析に失敗しました: %w", i, err)
		}
		if info.Channels != first.Channels || info.SampleRate != first.SampleRate || info.BitsPerSample != first.BitsPerSample {
			return nil, &ErrInvalidWAVHeader{
				Index: i,
				Details: fmt.Sprintf("フォーマットが先頭と一致しません (%dHz/%dch/%dbit != %dHz/%dch/%dbit)",
					info.SampleRate, info.Channels, info.BitsPerSample,
					first.SampleRate, first.Channels, first.BitsPerSample),
			}
		}
		audioData.Write(data)
	}

	return EncodePCM(first.SampleRate, first.Channels, first.BitsPerSample, audioData.Bytes()), nil
}

// EncodePCM はリニアPCMデータに標準の44バイトヘッダーを付けたWAVを返します。
func EncodePCM(sampleRate, channels, bitsPerSample int, pcm []byte) []byte {
	blockAlign := channels * bitsPerSample / 8
	out := make([]byte, WavTotalHeaderSize+len(pcm))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(WavTotalHeaderSize-RiffChunkIDSize-RiffChunkSizeSize+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], FmtChunkMinSize)
	binary.LittleEndian.PutUint16(out[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bitsPerSample))

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[WavTotalHeaderSize:], pcm)

	return out
}

// ----------------------------------------------------------------------
// 内部ヘルパー関数
// ----------------------------------------------------------------------

// parseWAV はRIFFチャンクを順に走査し、fmt 情報と data チャンクの中身を返します。
func parseWAV(wavBytes []byte, index int) (Info, []byte, error) {
	if len(wavBytes) < WavRiffHeaderSize {
		return Info{}, nil, &ErrInvalidWAVHeader{
			Index:   index,
			Details: fmt.Sprintf("WAVファイルサイズが短すぎます (RIFFヘッダー不足: %dバイト)", len(wavBytes)),
		}
	}
	if string(wavBytes[0:4]) != "RIFF" || string(wavBytes[8:12]) != "WAVE" {
		return Info{}, nil, &ErrInvalidWAVHeader{Index: index, Details: "RIFF/WAVE 識別子がありません"}
	}

	var info Info
	fmtFound := false
	offset := WavRiffHeaderSize

	for offset+ChunkHeaderSize <= len(wavBytes) {
		chunkID := string(wavBytes[offset : offset+ChunkIDSize])
		chunkSize := int(binary.LittleEndian.Uint32(wavBytes[offset+ChunkIDSize : offset+ChunkHeaderSize]))
		bodyStart := offset + ChunkHeaderSize
		bodyEnd := bodyStart + chunkSize

		switch chunkID {
		case "fmt ":
			if chunkSize < FmtChunkMinSize || bodyEnd > len(wavBytes) {
				return Info{}, nil, &ErrInvalidWAVHeader{Index: index, Details: "fmt チャンクが不完全です"}
			}
			body := wavBytes[bodyStart:bodyEnd]
			info.AudioFormat = int(binary.LittleEndian.Uint16(body[0:2]))
			info.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			if info.AudioFormat == wavFormatExtensible {
				info.AudioFormat = wavFormatPCM
			}
			fmtFound = true

		case "data":
			if !fmtFound {
				return Info{}, nil, &ErrInvalidWAVHeader{Index: index, Details: "data チャンクが fmt チャンクより前にあります"}
			}
			if bodyEnd > len(wavBytes) {
				return Info{}, nil, &ErrInvalidWAVHeader{Index: index, Details: "dataチャンクのデータ長がファイルサイズを超過しています"}
			}
			info.DataSize = chunkSize
			return info, wavBytes[bodyStart:bodyEnd], nil
		}

		// data チャンクでない場合 (LIST, fact など) はスキップ。奇数長の後にはパディングがある
		offset = bodyEnd
		if chunkSize%2 != 0 {
			offset++
		}
	}

	return Info{}, nil, &ErrInvalidWAVHeader{Index: index, Details: "WAVファイル内に 'data' チャンクが見つかりませんでした"}
}
