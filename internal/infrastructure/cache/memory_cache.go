package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"maintrack/internal/ports"
)

// MemoryCache keeps entries in a bounded process-local LRU. Every entry
// expires after the ttl given at construction; the per-call ttl is ignored.
type MemoryCache struct {
	entries *expirable.LRU[string, string]
}

var _ ports.Cache = (*MemoryCache)(nil)

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 256
	}
	return &MemoryCache{entries: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return "", false, err
	}
	value, ok := c.entries.Get(trimmedKey)
	return value, ok, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value string, _ time.Duration) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}
	c.entries.Add(trimmedKey, value)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	trimmedKey, err := checkKey(ctx, key)
	if err != nil {
		return err
	}
	c.entries.Remove(trimmedKey)
	return nil
}
