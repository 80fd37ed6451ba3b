package api

import (
	"errors"
	"fmt"
)

// ----------------------------------------------------------------------
// 通信・応答エラー
// ----------------------------------------------------------------------

// ErrBackendUnavailable は合成バックエンドに到達できない（未起動、接続拒否、タイムアウト）ことを示します。
type ErrBackendUnavailable struct {
	Endpoint   string
	WrappedErr error
}

func (e *ErrBackendUnavailable) Error() string {
	if e.WrappedErr == nil {
		return fmt.Sprintf("バックエンドに接続できません (%s)", e.Endpoint)
	}
	return fmt.Sprintf("バックエンドに接続できません (%s): %v", e.Endpoint, e.WrappedErr)
}

func (e *ErrBackendUnavailable) Unwrap() error { return e.WrappedErr }

// ErrAPIResponse はAPIが 4xx や 5xx などの異常なステータスコードを返したことを示します。
type ErrAPIResponse struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ErrAPIResponse) Error() string {
	// 応答ボディが長すぎる場合は切り詰める
	bodyDisplay := e.Body
	if len(bodyDisplay) > 100 {
		bodyDisplay = bodyDisplay[:100] + "..."
	}
	return fmt.Sprintf("API応答エラー (%s)。ステータスコード %d: %s", e.Endpoint, e.StatusCode, bodyDisplay)
}

// ErrInvalidJSON はAPI応答が期待されるJSON形式でなかったことを示します。
type ErrInvalidJSON struct {
	Details    string
	WrappedErr error
}

func (e *ErrInvalidJSON) Error() string {
	return fmt.Sprintf("不正なJSONデータ: %s (詳細: %v)", e.Details, e.WrappedErr)
}

func (e *ErrInvalidJSON) Unwrap() error { return e.WrappedErr }

// ----------------------------------------------------------------------
// 合成エラー
// ----------------------------------------------------------------------

// Phase は合成リクエストのどの段階で失敗したかを表します。
type Phase int

const (
	// PhaseSingle は単一リクエスト型バックエンドの合成呼び出しです。
	PhaseSingle Phase = iota
	// PhaseAudioQuery は二段階型バックエンドの1段目 (/audio_query) です。
	PhaseAudioQuery
	// PhaseSynthesis は二段階型バックエンドの2段目 (/synthesis) です。
	PhaseSynthesis
)

func (p Phase) String() string {
	switch p {
	case PhaseSingle:
		return "single"
	case PhaseAudioQuery:
		return "audio_query"
	case PhaseSynthesis:
		return "synthesis"
	default:
		return "unknown"
	}
}

// ErrSynthesis は音声合成リクエストの失敗を表します。
// ステータスコードとボディは WrappedErr の *ErrAPIResponse から取得できます。
type ErrSynthesis struct {
	Backend    string
	Phase      Phase
	WrappedErr error
}

func (e *ErrSynthesis) Error() string {
	return fmt.Sprintf("音声合成に失敗しました (backend=%s, phase=%s): %v", e.Backend, e.Phase, e.WrappedErr)
}

func (e *ErrSynthesis) Unwrap() error { return e.WrappedErr }

// SynthesisPhase はエラーチェーンから失敗した合成フェーズを取り出します。
func SynthesisPhase(err error) (Phase, bool) {
	var synthErr *ErrSynthesis
	if errors.As(err, &synthErr) {
		return synthErr.Phase, true
	}
	return 0, false
}

// StatusCode はエラーチェーンにAPI応答エラーが含まれていればそのステータスコードを返します。
func StatusCode(err error) (int, bool) {
	var respErr *ErrAPIResponse
	if errors.As(err, &respErr) {
		return respErr.StatusCode, true
	}
	return 0, false
}
