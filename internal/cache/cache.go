// Package cache wraps Redis with the cache-aside, fail-open policy used by
// every read path: a backend failure is indistinguishable from a miss, so a
// cache outage degrades latency, never availability.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/latifiss/oak/internal/logger"
	"github.com/latifiss/oak/internal/metrics"
)

const scanBatchSize = 100

// Cache is a fail-open decorator around a Redis client. The policy lives
// here once instead of try/catch at every call site: Get never returns an
// error, Set and Invalidate are best-effort.
type Cache struct {
	client  *redis.Client
	metrics *metrics.Metrics
	logger  logger.Logger
}

// New creates a Cache. metrics may be nil.
func New(client *redis.Client, m *metrics.Metrics, log logger.Logger) *Cache {
	return &Cache{
		client:  client,
		metrics: m,
		logger:  log,
	}
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Get unmarshals the cached value at key into dest and reports whether it was
// found. Backend errors are logged and counted as misses.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.failure("get", key, err)
		}
		c.miss(key)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		// A corrupt entry is as useless as a missing one. Drop it.
		c.failure("decode", key, err)
		c.client.Del(ctx, key)
		c.miss(key)
		return false
	}

	c.hit(key)
	return true
}

// Set stores value at key with the given TTL, best-effort. A zero TTL means
// no expiry; such keys must be invalidated explicitly on write.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.failure("encode", key, err)
		return
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.failure("set", key, err)
	}
}

// Invalidate deletes all keys matching the given glob patterns, best-effort.
// SCAN is used instead of KEYS to avoid blocking the Redis server.
func (c *Cache) Invalidate(ctx context.Context, patterns ...string) {
	if c.metrics != nil {
		c.metrics.CacheInvalidations.Inc()
	}

	for _, pattern := range patterns {
		var cursor uint64
		var deleted int64

		for {
			keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
			if err != nil {
				c.failure("scan", pattern, err)
				break
			}

			if len(keys) > 0 {
				n, delErr := c.client.Del(ctx, keys...).Result()
				if delErr != nil {
					c.failure("del", pattern, delErr)
					break
				}
				deleted += n
			}

			cursor = next
			if cursor == 0 {
				break
			}
		}

		if deleted > 0 {
			c.logger.Debug("cache invalidated",
				logger.String("pattern", pattern),
				logger.Int64("keys_deleted", deleted))
		}
	}
}

func (c *Cache) hit(key string) {
	if c.metrics != nil {
		c.metrics.CacheHits.WithLabelValues(namespaceOf(key)).Inc()
	}
}

func (c *Cache) miss(key string) {
	if c.metrics != nil {
		c.metrics.CacheMisses.WithLabelValues(namespaceOf(key)).Inc()
	}
}

func (c *Cache) failure(op, key string, err error) {
	if c.metrics != nil {
		c.metrics.CacheFailures.Inc()
	}
	c.logger.Warn("cache backend error, failing open",
		logger.String("op", op),
		logger.String("key", key),
		logger.Error(err))
}
