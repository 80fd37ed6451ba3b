package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 500 * time.Millisecond
	// 応答ボディの読み取り上限。音声1クリップ分としては十分な大きさ。
	maxResponseBytes = 64 << 20
)

// ----------------------------------------------------------------------
// Requester 構造体とコンストラクタ
// ----------------------------------------------------------------------

// Requester はバックエンドへのHTTPリクエストを送信し、ステータスと応答ボディを検証します。
// リクエスト間隔の制御 (rate.Limiter) と一時的な失敗のリトライ (指数バックオフ) を内包します。
type Requester struct {
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxRetries     uint64
	initialBackoff time.Duration
}

// RequesterOption は Requester の設定を変更する関数です。
type RequesterOption func(*Requester)

// WithRequestInterval はリクエスト間の最小間隔を設定します。0 以下で無制限になります。
func WithRequestInterval(d time.Duration) RequesterOption {
	return func(r *Requester) {
		if d <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithMaxRetries は一時的な失敗に対する最大リトライ回数を設定します。
func WithMaxRetries(n uint64) RequesterOption {
	return func(r *Requester) {
		r.maxRetries = n
	}
}

// WithInitialBackoff は最初のリトライまでの待機時間を設定します。
func WithInitialBackoff(d time.Duration) RequesterOption {
	return func(r *Requester) {
		if d > 0 {
			r.initialBackoff = d
		}
	}
}

// WithHTTPClient は内部で利用する *http.Client を差し替えます。
func WithHTTPClient(c *http.Client) RequesterOption {
	return func(r *Requester) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// NewRequester は新しい Requester を初期化します。timeout は1リクエストあたりの上限です。
func NewRequester(timeout time.Duration, opts ...RequesterOption) *Requester {
	r := &Requester{
		httpClient:     &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(rate.Inf, 1),
		maxRetries:     defaultMaxRetries,
		initialBackoff: defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ----------------------------------------------------------------------
// ヘルパー: API URLの構築
// ----------------------------------------------------------------------

// BuildURL はベースURLとエンドポイントを結合します。
func BuildURL(baseURL, endpoint string) (*url.URL, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, &ErrBackendUnavailable{Endpoint: endpoint, WrappedErr: fmt.Errorf("API URLのパース失敗: %w", err)}
	}

	u.Path, err = url.JoinPath(u.Path, endpoint)
	if err != nil {
		return nil, &ErrBackendUnavailable{Endpoint: endpoint, WrappedErr: fmt.Errorf("エンドポイント結合失敗: %w", err)}
	}

	return u, nil
}

// ----------------------------------------------------------------------
// リクエスト実行
// ----------------------------------------------------------------------

// Do は newRequest が構築したリクエストを送信し、2xx 応答のボディを返します。
// リクエストはリトライのたびに再構築されるため、newRequest はボディを毎回新しく用意する必要があります。
//
// 返されるエラー:
//   - 通信自体が失敗した場合は *ErrBackendUnavailable
//   - 2xx 以外の応答は *ErrAPIResponse (429 と 5xx はリトライ後の最終結果)
func (r *Requester) Do(ctx context.Context, endpoint string, newRequest func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(b, r.maxRetries), ctx)

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		if err := r.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(&ErrBackendUnavailable{Endpoint: endpoint, WrappedErr: err})
		}

		req, err := newRequest(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("リクエスト構築失敗 (%s): %w", endpoint, err))
		}

		resp, err := r.httpClient.Do(req)
		if err != nil {
			slog.DebugContext(ctx, "API通信に失敗しました。リトライします。", "endpoint", endpoint, "attempt", attempt, "error", err)
			return &ErrBackendUnavailable{Endpoint: endpoint, WrappedErr: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return &ErrBackendUnavailable{Endpoint: endpoint, WrappedErr: fmt.Errorf("応答ボディの読み取り失敗: %w", err)}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			respErr := &ErrAPIResponse{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(data)}
			if isRetryableStatus(resp.StatusCode) {
				slog.DebugContext(ctx, "一時的なAPIエラーのためリトライします。", "endpoint", endpoint, "status", resp.StatusCode, "attempt", attempt)
				return respErr
			}
			return backoff.Permanent(respErr)
		}

		body = data
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		// コンテキスト終了時は backoff がコンテキストのエラーを返すため、到達不能として扱う
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			var unavailable *ErrBackendUnavailable
			if !errors.As(err, &unavailable) {
				return nil, &ErrBackendUnavailable{Endpoint: endpoint, WrappedErr: err}
			}
		}
		return nil, err
	}
	return body, nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
