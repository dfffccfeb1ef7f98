package emailcheck

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/listguard/internal/pkg/logger"
)

// RedisCache implements Cache on top of Redis string keys holding "1" or "0".
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (bool, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, false
	}
	if err != nil {
		logger.Warn("dns cache read failed", "key", key, "error", err)
		return false, false
	}
	return val == "1", true
}

func (c *RedisCache) Set(ctx context.Context, key string, value bool, ttl time.Duration) {
	v := "0"
	if value {
		v = "1"
	}
	if err := c.client.Set(ctx, key, v, ttl).Err(); err != nil {
		logger.Warn("dns cache write failed", "key", key, "error", err)
	}
}
