package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "sl:"
	defaultRedisTTL = time.Hour
)

// RedisCache is a cache shared by all instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps client. A non-positive ttl falls back to one hour.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func key(shortCode string) string {
	return keyPrefix + shortCode
}

// Get reports a miss as ("", false, nil).
func (c *RedisCache) Get(ctx context.Context, shortCode string) (string, bool, error) {
	const op = "adapter.cache.RedisCache.Get"

	originalURL, err := c.client.Get(ctx, key(shortCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("%s: failed to get key: %w", op, err)
	}

	return originalURL, true, nil
}

// Set stores the mapping under the "sl:" prefix with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, shortCode, originalURL string) error {
	const op = "adapter.cache.RedisCache.Set"

	if err := c.client.Set(ctx, key(shortCode), originalURL, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to set key: %w", op, err)
	}

	return nil
}
