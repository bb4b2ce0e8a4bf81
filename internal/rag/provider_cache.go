package rag

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// BuildProviderFunc constructs a provider for one model identity. It is the
// expensive step (backend probe) the cache exists to amortize.
type BuildProviderFunc func(ctx context.Context, modelID string) (VectorProvider, error)

// ProviderCache holds providers per model identity with a bounded TTL.
// Concurrent first loads of the same identity collapse into a single build;
// waiters share its result. Failed builds are not cached.
type ProviderCache struct {
	ttl   time.Duration
	build BuildProviderFunc
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	provider  VectorProvider
	expiresAt time.Time
}

func NewProviderCache(ttl time.Duration, build BuildProviderFunc) *ProviderCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ProviderCache{
		ttl:     ttl,
		build:   build,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached provider for modelID, building it if absent or
// expired. The singleflight group guarantees at most one concurrent build per
// identity; the lock is never held across the build itself.
func (c *ProviderCache) Get(ctx context.Context, modelID string) (VectorProvider, error) {
	if p, ok := c.lookup(modelID); ok {
		return p, nil
	}

	v, err, _ := c.group.Do(modelID, func() (interface{}, error) {
		if p, ok := c.lookup(modelID); ok {
			return p, nil
		}
		p, err := c.build(ctx, modelID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[modelID] = cacheEntry{provider: p, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(VectorProvider), nil
}

func (c *ProviderCache) lookup(modelID string) (VectorProvider, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[modelID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.provider, true
}
