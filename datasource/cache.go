// Package datasource is the option cache and fetch engine: dependency-keyed
// caching with staleness, in-flight de-duplication, per-instance
// cancellation with latest-wins ordering, and debounced search.
package datasource

import (
	"strings"
	"sync"
	"time"

	goforma "github.com/reoring/goforma"
)

type cacheItem struct {
	options   []goforma.Option
	fetchedAt time.Time
}

// Cache is the injected option store. One cache is constructed per
// application (or per test) and handed to every engine; there is no package
// global. Entries are created on first successful fetch, refreshed in place
// on later ones, and removed only by Clear or ClearSource. Staleness is a
// property of the read: entries past the caller's stale time are simply not
// returned.
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the time source used for staleness. Tests inject a
// fake clock to step through stale-time boundaries.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{items: map[string]cacheItem{}, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the options under key when the entry is fresh: fetched no
// longer than staleTime ago. Stale entries are not returned; the caller must
// fetch before reuse.
func (c *Cache) Get(key string, staleTime time.Duration) ([]goforma.Option, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, found := c.items[key]
	if !found {
		return nil, false
	}
	if c.now().Sub(it.fetchedAt) > staleTime {
		return nil, false
	}
	return it.options, true
}

// Put writes options through under key, stamping the current time.
func (c *Cache) Put(key string, options []goforma.Option) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem{options: options, fetchedAt: c.now()}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string]cacheItem{}
}

// ClearSource drops the entries belonging to one source key: those whose
// cache key starts with "<sourceKey>:". Custom cache-key functions that keep
// that prefix stay clearable.
func (c *Cache) ClearSource(sourceKey string) {
	prefix := sourceKey + ":"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
}

// Len reports the number of entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
