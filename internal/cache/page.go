package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix namespaces page cache entries in a shared Redis.
const KeyPrefix = "yatube:page:"

// PageCache stores rendered responses under a policy key. Entries expire on
// their own; Invalidate drops one early.
type PageCache interface {
	// Get returns the cached body and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// RedisPageCache implements PageCache with plain GET / SET EX / DEL.
type RedisPageCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewPageCache(client *redis.Client, logger *zap.Logger) *RedisPageCache {
	return &RedisPageCache{client: client, logger: logger.Named("page_cache")}
}

// NewClient creates a Redis client from a URL such as redis://:password@host:6379/0
// and pings it so startup fails fast when Redis is unreachable.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func pageKey(key string) string {
	return KeyPrefix + key
}

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, pageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached page: %w", err)
	}
	return body, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, pageKey(key), body, ttl).Err(); err != nil {
		return fmt.Errorf("set cached page: %w", err)
	}
	c.logger.Debug("page cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *RedisPageCache) Invalidate(ctx context.Context, key string) error {
	removed, err := c.client.Del(ctx, pageKey(key)).Result()
	if err != nil {
		return fmt.Errorf("invalidate cached page: %w", err)
	}
	c.logger.Info("page cache invalidated", zap.String("key", key), zap.Int64("removed", removed))
	return nil
}
