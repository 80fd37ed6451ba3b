package voicevox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shouni/go-voice-batch/pkg/voicebatch/api"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/audio"
	"github.com/shouni/go-voice-batch/pkg/voicebatch/catalog"
)

// DefaultAPIURL はローカルで起動したVOICEVOXエンジンの既定URLです。
const DefaultAPIURL = "http://localhost:50021"

// ----------------------------------------------------------------------
// クライアント構造体とコンストラクタ
// ----------------------------------------------------------------------

// Client はVOICEVOXエンジンへのAPIリクエストを処理するクライアントです。
type Client struct {
	requester *api.Requester
	health    *api.HealthProbe
	apiURL    string
}

// ClientOption は Client の設定を変更する関数です。
type ClientOption func(*clientConfig)

type clientConfig struct {
	requesterOpts []api.RequesterOption
	healthTimeout time.Duration
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
func NewClient(apiURL string, timeout time.Duration, opts ...ClientOption) *Client {
	cfg := &clientConfig{healthTimeout: api.DefaultHealthTimeout}
	for _, opt := range opts {
		opt(cfg)
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		requester: api.NewRequester(timeout, cfg.requesterOpts...),
		health:    api.NewHealthProbe(cfg.healthTimeout, nil),
		apiURL:    apiURL,
	}
}

// ----------------------------------------------------------------------
// API呼び出しロジック
// ----------------------------------------------------------------------

// RunAudioQuery は /audio_query APIを呼び出し、音声合成のためのクエリJSONを返します。
func (c *Client) RunAudioQuery(ctx context.Context, text string, styleID int) ([]byte, error) {
	const endpoint = "/audio_query"

	u, err := api.BuildURL(c.apiURL, endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("text", text)
	q.Set("speaker", strconv.Itoa(styleID))
	u.RawQuery = q.Encode()

	bodyBytes, err := c.requester.Do(ctx, endpoint, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	})
	if err != nil {
		return nil, err
	}

	// JSON構造の検証
	var aqr AudioQueryResponse
	if err := json.Unmarshal(bodyBytes, &aqr); err != nil {
		return nil, &api.ErrInvalidJSON{Details: fmt.Sprintf("%s応答JSONのデコード", endpoint), WrappedErr: err}
	}

	return bodyBytes, nil
}

// RunSynthesis は /synthesis APIを呼び出し、WAV形式の音声データを返します。
func (c *Client) RunSynthesis(ctx context.Context, queryBody []byte, styleID int) ([]byte, error) {
	const endpoint = "/synthesis"

	u, err := api.BuildURL(c.apiURL, endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("speaker", strconv.Itoa(styleID))
	u.RawQuery = q.Encode()

	wavData, err := c.requester.Do(ctx, endpoint, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(queryBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/wav")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	if len(wavData) < audio.WavTotalHeaderSize {
		return nil, &audio.ErrInvalidWAVHeader{
			Index:   -1,
			Details: fmt.Sprintf("WAVデータのサイズが短すぎます (%dバイト)", len(wavData)),
		}
	}

	return wavData, nil
}

// FetchVoices は /speakers APIを呼び出し、話者とスタイルの一覧をカタログ形式で返します。
func (c *Client) FetchVoices(ctx context.Context) ([]catalog.Entry, error) {
	const endpoint = "/speakers"

	u, err := api.BuildURL(c.apiURL, endpoint)
	if err != nil {
		return nil, err
	}

	bodyBytes, err := c.requester.Do(ctx, endpoint, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
	if err != nil {
		return nil, err
	}

	var speakers []VVSpeaker
	if err := json.Unmarshal(bodyBytes, &speakers); err != nil {
		return nil, &api.ErrInvalidJSON{Details: "/speakers 応答", WrappedErr: err}
	}

	entries := make([]catalog.Entry, 0, len(speakers))
	for _, spk := range speakers {
		styles := make([]catalog.Style, len(spk.Styles))
		for i, s := range spk.Styles {
			styles[i] = catalog.Style{Name: s.Name, ID: s.ID}
		}
		entries = append(entries, catalog.Entry{DisplayName: spk.Name, Styles: styles})
	}
	return entries, nil
}

// HealthCheck は /version が成功応答を返すかを確認します。
func (c *Client) HealthCheck(ctx context.Context) bool {
	u, err := api.BuildURL(c.apiURL, "/version")
	if err != nil {
		return false
	}
	return c.health.Check(ctx, u.String())
}
