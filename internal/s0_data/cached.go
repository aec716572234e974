package s0_data

import (
	"context"
	"time"

	"github.com/wonny/aegis/momentum/internal/contracts"
	"github.com/wonny/aegis/momentum/pkg/logger"
	"github.com/wonny/aegis/momentum/pkg/redis"
)

// CachedMarketData is a Redis read-through cache over another MarketData.
// Histories ending before today are immutable, so they are cached for the configured TTL;
// today's values use the short intraday TTL.
type CachedMarketData struct {
	inner  contracts.MarketData
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

// NewCachedMarketData wraps inner. A disabled Redis client makes this a pass-through.
func NewCachedMarketData(inner contracts.MarketData, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedMarketData {
	return &CachedMarketData{
		inner:  inner,
		cache:  redis.NewCache(client, "momentum"),
		ttl:    ttl,
		logger: log.Component("s0_data"),
		now:    time.Now,
	}
}

func (c *CachedMarketData) ttlFor(asOf time.Time) time.Duration {
	if truncateDay(asOf).Before(truncateDay(c.now())) {
		return c.ttl
	}
	return redis.TTLIntraday
}

// Securities implements contracts.MarketData
func (c *CachedMarketData) Securities(ctx context.Context, asOf time.Time) ([]contracts.Security, error) {
	key := redis.UniverseKey(asOf)

	var secs []contracts.Security
	if found, err := c.cache.Get(ctx, key, &secs); err == nil && found {
		return secs, nil
	} else if err != nil {
		c.logger.WithError(err).Warn("universe cache read failed")
	}

	secs, err := c.inner.Securities(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, secs, c.ttlFor(asOf)); err != nil {
		c.logger.WithError(err).Warn("universe cache write failed")
	}
	return secs, nil
}

// History implements contracts.MarketData
func (c *CachedMarketData) History(ctx context.Context, sec contracts.Security, field contracts.Field, window int, freq contracts.Frequency, asOf time.Time) (contracts.Series, error) {
	key := redis.HistoryKey(string(sec), string(field), window, asOf)

	var series contracts.Series
	if found, err := c.cache.Get(ctx, key, &series); err == nil && found {
		return series, nil
	} else if err != nil {
		c.logger.WithError(err).WithField("security", sec).Warn("history cache read failed")
	}

	series, err := c.inner.History(ctx, sec, field, window, freq, asOf)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, series, c.ttlFor(asOf)); err != nil {
		c.logger.WithError(err).WithField("security", sec).Warn("history cache write failed")
	}
	return series, nil
}

// Current is never cached
func (c *CachedMarketData) Current(ctx context.Context, sec contracts.Security, field contracts.Field, asOf time.Time) (float64, error) {
	return c.inner.Current(ctx, sec, field, asOf)
}
