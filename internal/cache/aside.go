package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/observability"
)

// Aside implements the cache-aside pattern: return the cached value for key
// if present, otherwise call load, store the loaded value under key with the
// given TTL, and return it. dest must be a pointer; load is expected to fill
// it. When the cache is unavailable the call degrades to a plain load.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if client == nil {
		observability.CacheRequests.WithLabelValues("bypass").Inc()
		return load()
	}

	if b, err := client.Get(ctx, key).Bytes(); err == nil {
		if err := json.Unmarshal(b, dest); err == nil {
			observability.CacheRequests.WithLabelValues("hit").Inc()
			return nil
		}
		// Corrupt entry: drop it and reload.
		client.Del(ctx, key)
	}

	observability.CacheRequests.WithLabelValues("miss").Inc()
	if err := load(); err != nil {
		return err
	}

	if b, err := json.Marshal(dest); err == nil {
		client.Set(ctx, key, b, ttl)
	}
	return nil
}
