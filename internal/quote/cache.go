package quote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Simply-Ryan/stockleague/internal/model"
)

const cacheKeyPrefix = "quote:"

// Cache decorates a Source with a Redis-backed TTL cache. The TTL
// (default 30s) also dedups lookups of the same symbol across multiple
// leaderboards in one broadcast tick. Cache failures fall through to
// the upstream: Redis being down degrades to uncached lookups, never
// to errors.
type Cache struct {
	client   *redis.Client
	upstream Source
	ttl      time.Duration
	logger   *zap.Logger
}

var _ Source = (*Cache)(nil)

// NewCache creates a Cache in front of upstream.
func NewCache(client *redis.Client, upstream Source, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{
		client:   client,
		upstream: upstream,
		ttl:      ttl,
		logger:   logger,
	}
}

// Quote returns the cached quote for symbol, falling back to the
// upstream on a miss.
func (c *Cache) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	key := cacheKeyPrefix + symbol

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var quote model.Quote
		if err := json.Unmarshal([]byte(raw), &quote); err == nil {
			return quote, nil
		}
		// Corrupt entry, refetch below.
	} else if err != redis.Nil {
		c.logger.Debug("quote cache read failed",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
	}

	quote, err := c.upstream.Quote(ctx, symbol)
	if err != nil {
		return model.Quote{}, err
	}

	if data, err := json.Marshal(quote); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Debug("quote cache write failed",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
	}
	return quote, nil
}
