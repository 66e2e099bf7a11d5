package ports

import (
	"context"
	"time"
)

// Cache holds serialized reference lists (active machines, active technicians)
// between catalog writes. Implementations: the cache_entries table, an
// in-process LRU, or redis.
type Cache interface {
	// Get reports found=false for a missing or expired key.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores value; ttl <= 0 keeps it until deleted.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ActiveListKey names the cache entry for the active rows of a catalog entity,
// e.g. ActiveListKey("machines") == "catalog:machines:active".
func ActiveListKey(entity string) string {
	return "catalog:" + entity + ":active"
}
