package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"maintrack/internal/errs"
	"maintrack/internal/ports"
)

type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.Cache = (*RedisCache)(nil)

// NewRedisCache parses a redis:// URL. Keys are namespaced with prefix.
func NewRedisCache(url string, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errs.Wrap(err, "parse redis url")
	}
	return NewRedisCacheWithClient(redis.NewClient(opts), prefix), nil
}

func NewRedisCacheWithClient(client redis.UniversalClient, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return "", false, err
	}

	value, err := c.client.Get(ctx, c.prefix+trimmedKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(err, "redis get")
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.prefix+trimmedKey, value, ttl).Err(); err != nil {
		return errs.Wrap(err, "redis set")
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}
	if err := c.client.Del(ctx, c.prefix+trimmedKey).Err(); err != nil {
		return errs.Wrap(err, "redis del")
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
