// Package elevenlabs はElevenLabs (テキストとボイスIDを1回で送る単一呼び出し型) のクライアントを提供します。
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/api"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/audio"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/catalog"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/synth"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/task"
)

const (
	// DefaultAPIURL はElevenLabs APIのベースURLです。
	DefaultAPIURL = "https://api.elevenlabs.io/v1"
	// DefaultModelID は多言語対応の既定モデルです。
	DefaultModelID = "eleven_multilingual_v2"

	DefaultStability       = 0.5
	DefaultSimilarityBoost = 0.75

	apiKeyHeader = "xi-api-key"
)

// Client はElevenLabs APIへのリクエストを処理するクライアントです。
// synth.Synthesizer と catalog.Fetcher を満たします。
type Client struct {
	requester *api.Requester
	health    *api.HealthProbe
	apiURL    string
	apiKey    string
	modelID   string
	settings  VoiceSettings
}

// ClientOption は Client の設定を変更する関数です。
type ClientOption func(*clientConfig)

type clientConfig struct {
	apiURL        string
	modelID       string
	settings      VoiceSettings
	requesterOpts []api.RequesterOption
	healthTimeout time.Duration
}

// WithAPIURL はベースURLを差し替えます (テストやプロキシ用)。
func WithAPIURL(u string) ClientOption {
	return func(c *clientConfig) {
		if u != "" {
			c.apiURL = u
		}
	}
}

// WithModelID は合成モデルを設定します。
func WithModelID(id string) ClientOption {
	return func(c *clientConfig) {
		if id != "" {
			c.modelID = id
		}
	}
}

// WithVoiceSettings は stability と similarity_boost を設定します。
func WithVoiceSettings(stability, similarityBoost float64) ClientOption {
	return func(c *clientConfig) {
		c.settings = VoiceSettings{Stability: stability, SimilarityBoost: similarityBoost}
	}
}

// WithRequesterOptions は内部の api.Requester に渡すオプションを追加します。
func WithRequesterOptions(opts ...api.RequesterOption) ClientOption {
	return func(c *clientConfig) {
		c.requesterOpts = append(c.requesterOpts, opts...)
	}
}

// WithHealthTimeout はヘルスチェックのタイムアウトを設定します。
func WithHealthTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.healthTimeout = d
	}
}

// NewClient は新しいClientインスタンスを初期化します。
func NewClient(apiKey string, timeout time.Duration, opts ...ClientOption) *Client {
	cfg := &clientConfig{
		apiURL:        DefaultAPIURL,
		modelID:       DefaultModelID,
		settings:      VoiceSettings{Stability: DefaultStability, SimilarityBoost: DefaultSimilarityBoost},
		healthTimeout: api.DefaultHealthTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	header := http.Header{}
	header.Set(apiKeyHeader, apiKey)

	return &Client{
		requester: api.NewRequester(timeout, cfg.requesterOpts...),
		health:    api.NewHealthProbe(cfg.healthTimeout, header),
		apiURL:    cfg.apiURL,
		apiKey:    apiKey,
		modelID:   cfg.modelID,
		settings:  cfg.settings,
	}
}

var (
	_ synth.Synthesizer = (*Client)(nil)
	_ catalog.Fetcher   = (*Client)(nil)
)

func (c *Client) Kind() synth.Kind { return synth.KindSingleCall }

func (c *Client) SourceFormat() audio.Format { return audio.FormatMP3 }

// ----------------------------------------------------------------------
// API呼び出しロジック
// ----------------------------------------------------------------------

// Synthesize は /text-to-speech/{voice_id} を呼び出し、MP3形式の音声データを返します。
func (c *Client) Synthesize(ctx context.Context, text string, voice task.VoiceRef) ([]byte, error) {
	data, err := c.synthesize(ctx, text, voice.VoiceID)
	if err != nil {
		return nil, &api.ErrSynthesis{Backend: string(synth.KindSingleCall), Phase: api.PhaseSingle, WrappedErr: err}
	}
	return data, nil
}

func (c *Client) synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if strings.TrimSpace(voiceID) == "" {
		return nil, fmt.Errorf("ボイスIDが指定されていません")
	}
	endpoint := "/text-to-speech/" + voiceID

	u, err := api.BuildURL(c.apiURL, endpoint)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(ttsRequest{Text: text, ModelID: c.modelID, VoiceSettings: c.settings})
	if err != nil {
		return nil, fmt.Errorf("リクエストJSONのエンコード失敗: %w", err)
	}

	data, err := c.requester.Do(ctx, endpoint, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set(apiKeyHeader, c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &audio.ErrNoAudioData{}
	}
	return data, nil
}

// FetchVoices は /voices を呼び出し、利用可能なボイスをカタログ形式で返します。
func (c *Client) FetchVoices(ctx context.Context) ([]catalog.Entry, error) {
	const endpoint = "/voices"

	u, err := api.BuildURL(c.apiURL, endpoint)
	if err != nil {
		return nil, err
	}

	bodyBytes, err := c.requester.Do(ctx, endpoint, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(apiKeyHeader, c.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var resp voicesResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		return nil, &api.ErrInvalidJSON{Details: "/voices 応答", WrappedErr: err}
	}

	entries := make([]catalog.Entry, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		entries = append(entries, catalog.Entry{DisplayName: v.Name, VoiceID: v.VoiceID})
	}
	return entries, nil
}

// HealthCheck は APIキー付きで /voices が成功応答を返すかを確認します。
func (c *Client) HealthCheck(ctx context.Context) bool {
	u, err := api.BuildURL(c.apiURL, "/voices")
	if err != nil {
		return false
	}
	return c.health.Check(ctx, u.String())
}
