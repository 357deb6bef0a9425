// Package cache is a thin cache-aside helper over Redis. Callers read, compute
// on miss and write back explicitly; nothing here intercepts calls implicitly,
// so invalidation responsibility stays at the call site.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"focus/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New wraps a Redis client with a default TTL for Set.
func New(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// GetJSON reads key into dest. The boolean reports whether the key was present.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		c.logger.Warn().Str("key", key).Err(err).Msg("dropping undecodable cache entry")
		metrics.CacheMisses.Inc()
		return false, nil
	}
	metrics.CacheHits.Inc()
	return true, nil
}

// SetJSON stores v under key with the default TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	return c.SetJSONTTL(ctx, key, v, c.ttl)
}

// SetJSONTTL stores v under key with an explicit TTL.
func (c *Cache) SetJSONTTL(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete drops the given keys. Missing keys are ignored.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Once sets a marker key if absent and reports whether this call claimed it.
// Used to deduplicate per-day notifications across repeated evaluations.
func (c *Cache) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx %s: %w", key, err)
	}
	return ok, nil
}
