package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

const cacheKeyPrefix = "fx:series:"

// Cache is a read-through Gateway decorator that keeps recent series in
// Redis, so users watching the same pair share one provider call per TTL.
// Redis errors never fail a fetch; they fall through to the provider.
type Cache struct {
	next   Gateway
	client *redis.Client
	ttl    func(model.Interval) time.Duration
	logger zerolog.Logger

	hits, misses prometheus.Counter
}

// NewCache wraps next. A zero ttl caches each series for half its interval.
func NewCache(next Gateway, client *redis.Client, ttl time.Duration) *Cache {
	ttlFn := func(iv model.Interval) time.Duration { return iv.Duration() / 2 }
	if ttl > 0 {
		ttlFn = func(model.Interval) time.Duration { return ttl }
	}
	return &Cache{
		next:   next,
		client: client,
		ttl:    ttlFn,
		logger: log.With().Str("component", "series_cache").Logger(),
	}
}

// WithCounters makes the cache count hits and misses.
func (c *Cache) WithCounters(hits, misses prometheus.Counter) *Cache {
	c.hits, c.misses = hits, misses
	return c
}

func (c *Cache) count(counter prometheus.Counter) {
	if counter != nil {
		counter.Inc()
	}
}

func cacheKey(symbol model.Symbol, interval model.Interval) string {
	return fmt.Sprintf("%s%s:%s", cacheKeyPrefix, symbol, interval)
}

// Fetch implements Gateway.
func (c *Cache) Fetch(ctx context.Context, symbol model.Symbol, interval model.Interval) (model.PriceSeries, error) {
	key := cacheKey(symbol, interval)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var series model.PriceSeries
		if err := json.Unmarshal(data, &series); err == nil && len(series) > 0 {
			c.count(c.hits)
			return series, nil
		}
		c.logger.Warn().Str("key", key).Msg("Dropping undecodable cache entry")
	case err != redis.Nil:
		c.logger.Warn().Err(err).Str("key", key).Msg("Redis read failed, using provider")
	}

	c.count(c.misses)
	series, err := c.next.Fetch(ctx, symbol, interval)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(series); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl(interval)).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Redis write failed")
		}
	}
	return series, nil
}
