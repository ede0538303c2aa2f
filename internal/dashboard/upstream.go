package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/reservahub/internal/audit"
	"github.com/xela07ax/reservahub/internal/infra"
)

// UpstreamClient — запасной путь чтения аудита: HTTP-вызов основного API
// с сервисным токеном. У дашборда нет и не будет учетных данных к
// Postgres — только подписанный токен. Rate limiter не дает запасному
// пути превратиться в дополнительную нагрузку на перегруженный сервис.
type UpstreamClient struct {
	baseURL string
	token   string
	hc      *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewUpstreamClient(cfg infra.UpstreamConfig, logger *zap.Logger) *UpstreamClient {
	return &UpstreamClient{
		baseURL: cfg.BaseURL,
		token:   cfg.ServiceToken,
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		logger:  logger.Named("upstream"),
	}
}

// FetchAudit читает последние события через публичный API основного сервиса.
func (c *UpstreamClient) FetchAudit(ctx context.Context, limit int) ([]audit.Entry, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("upstream: rate limit wait: %w", err)
	}

	url := fmt.Sprintf("%s/v1/audit?limit=%d", c.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream: unexpected status %d", resp.StatusCode)
	}

	var entries []audit.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("upstream: decode: %w", err)
	}
	return entries, nil
}
