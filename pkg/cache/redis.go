package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a shared response cache. All operations are best effort: a
// redis failure degrades to a cache miss, never to a pipeline error.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedis wraps an existing redis client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, logger: slog.Default()}
}

// Get returns the cached value for key, or a miss on any redis error.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Set stores value under key with the given ttl.
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "key", key, "error", err)
	}
}
