package catalog

import (
	"context"
	"sync"

	"github.com/nerrad567/beolink-bridge/internal/backend"
)

// SourceCache memoises AV-renderer source lists per entity for the
// process lifetime. There is no invalidation: a renderer whose sources
// change at runtime keeps its first-seen list until restart.
type SourceCache struct {
	mu      sync.Mutex
	sources map[string][]backend.Source
}

// NewSourceCache returns an empty cache.
func NewSourceCache() *SourceCache {
	return &SourceCache{sources: make(map[string][]backend.Source)}
}

// Get returns the cached source list for an entity, fetching it from
// the gateway on first use. A fetch error is returned without caching
// so the next enumeration retries.
func (c *SourceCache) Get(ctx context.Context, gw backend.Gateway, entityID string) ([]backend.Source, error) {
	c.mu.Lock()
	if cached, ok := c.sources[entityID]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	// Fetch outside the lock; a slow renderer must not block lookups
	// for other entities. A duplicate concurrent fetch is harmless.
	fetched, err := gw.Sources(ctx, entityID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.sources[entityID] = fetched
	c.mu.Unlock()
	return fetched, nil
}

// Len returns the number of cached entries.
func (c *SourceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sources)
}
