package resolver

import (
	"context"
	"sort"
	"sync"

	"github.com/pagdeploy/pagbundle/internal/core/aptindex"
)

// Cache is the run-scoped fetch cache shared by every group in one build.
// The first caller to claim a name performs the fetch; concurrent callers for
// the same in-flight name wait on that single fetch instead of duplicating
// it. Completed results, including failures, are memoized for the lifetime of
// the run so a name is fetched at most once. A Cache is created empty at run
// start and discarded at run end; it is never persisted.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	ready chan struct{}
	rec   *aptindex.PackageRecord
	err   error
}

// NewCache returns an empty run-scoped cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Do returns the cached record for name, or claims the name and runs fetch to
// produce it. Callers arriving while a fetch for the same name is in flight
// block until that fetch completes (or their context is cancelled).
func (c *Cache) Do(ctx context.Context, name string, fetch func(context.Context) (*aptindex.PackageRecord, error)) (*aptindex.PackageRecord, error) {
	c.mu.Lock()
	if e, ok := c.entries[name]; ok {
		c.mu.Unlock()
		select {
		case <-e.ready:
			return e.rec, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &cacheEntry{ready: make(chan struct{})}
	c.entries[name] = e
	c.mu.Unlock()

	e.rec, e.err = fetch(ctx)
	close(e.ready)
	return e.rec, e.err
}

// Len reports how many names have been claimed so far.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Names returns the claimed package names in sorted order.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
