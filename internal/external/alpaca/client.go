package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wonny/aegis/momentum/pkg/config"
	"github.com/wonny/aegis/momentum/pkg/httputil"
	"github.com/wonny/aegis/momentum/pkg/logger"
	"github.com/wonny/aegis/momentum/pkg/redis"
)

// Client handles communication with the Alpaca trading and market data REST APIs.
// It implements contracts.Broker.
// ⭐ SSOT: Alpaca API 호출은 이 클라이언트에서만
type Client struct {
	http       *httputil.Client
	tradingURL string
	dataURL    string
	logger     *logger.Logger
}

// NewClient creates a client. Requests share the Redis rate limit when Redis is enabled.
func NewClient(cfg config.AlpacaConfig, rc *redis.Client, log *logger.Logger) *Client {
	log = log.Component("alpaca")

	hc := httputil.New(log).
		WithHeader("APCA-API-KEY-ID", cfg.KeyID).
		WithHeader("APCA-API-SECRET-KEY", cfg.SecretKey)
	if rc.Enabled() {
		hc = hc.WithRateLimiter(redis.NewRateLimiter(rc, "alpaca"), redis.AlpacaRateLimit(cfg.RequestsPerMin))
	}

	log.WithFields(map[string]interface{}{
		"trading_url": cfg.TradingURL,
		"paper":       cfg.Paper(),
	}).Info("Alpaca client created")

	return &Client{
		http:       hc,
		tradingURL: strings.TrimRight(cfg.TradingURL, "/"),
		dataURL:    strings.TrimRight(cfg.DataURL, "/"),
		logger:     log,
	}
}

func (c *Client) trading(ctx context.Context, method, path string, body, out interface{}) error {
	return c.http.DoJSON(ctx, method, c.tradingURL+path, body, out)
}

func (c *Client) data(ctx context.Context, path string, out interface{}) error {
	return c.http.DoJSON(ctx, http.MethodGet, c.dataURL+path, nil, out)
}

// isNotFound reports a 404 from the API
func isNotFound(err error) bool {
	var se *httputil.StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Account returns equity and buying power
func (c *Client) Account(ctx context.Context) (*Account, error) {
	var raw accountResponse
	if err := c.trading(ctx, http.MethodGet, "/v2/account", nil, &raw); err != nil {
		return nil, fmt.Errorf("account request: %w", err)
	}
	return raw.toAccount()
}
