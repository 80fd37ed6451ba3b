package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// DefaultHealthTimeout はヘルスチェックに許容する最大時間です。
const DefaultHealthTimeout = 5 * time.Second

// HealthProbe はバックエンドが応答可能かを短いタイムアウトで確認します。
type HealthProbe struct {
	client  *httpkit.Client
	timeout time.Duration
	header  http.Header
}

// NewHealthProbe は新しい HealthProbe を初期化します。header はリクエストごとに付与されます (APIキーなど)。
func NewHealthProbe(timeout time.Duration, header http.Header) *HealthProbe {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	return &HealthProbe{
		client:  httpkit.New(timeout, httpkit.WithMaxRetries(0)), // 停止中のバックエンドは即座に失敗させる
		timeout: timeout,
		header:  header.Clone(),
	}
}

// Check は probeURL に GET を送り、成功ステータスが返った場合のみ true を返します。
func (p *HealthProbe) Check(ctx context.Context, probeURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		slog.WarnContext(ctx, "ヘルスチェックのリクエスト構築に失敗しました", "url", probeURL, "error", err)
		return false
	}
	for key, values := range p.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	// DoRequest がステータスチェックを含むため、エラーがなければ成功応答
	if _, err := p.client.DoRequest(req); err != nil {
		slog.WarnContext(ctx, "バックエンドのヘルスチェックに失敗しました", "url", probeURL, "error", err)
		return false
	}
	return true
}
