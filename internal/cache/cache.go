// Package cache is the local read cache of the sync layer.
//
// Entries expire a fixed TTL after they were stored. There is no size bound:
// the key set grows with the distinct queries observed and expired entries
// are only dropped when read, invalidated or overwritten.
//
//	c := cache.New(30 * time.Second)
//	c.Set("tasks:org-1", rows)
//	rows, ok := c.Get("tasks:org-1")
//	c.Invalidate("tasks:")
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/localnerve/recordsdb/internal/metrics"
)

// DefaultTTL is the freshness window of a cached read.
const DefaultTTL = 30 * time.Second

type entry struct {
	value    any
	storedAt time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics records hits, misses and size.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New returns an empty cache. A ttl of zero or less uses DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the value stored under key when it is younger than the TTL.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.metrics.CacheMiss()
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		c.metrics.SetCacheEntries(len(c.entries))
		c.metrics.CacheMiss()
		return nil, false
	}
	c.metrics.CacheHit()
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: c.now()}
	c.metrics.SetCacheEntries(len(c.entries))
}

// Invalidate removes every key containing pattern and returns how many were
// removed. An empty pattern matches every key.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
			removed++
		}
	}
	c.metrics.CacheInvalidated(removed)
	c.metrics.SetCacheEntries(len(c.entries))
	return removed
}

// Delete removes one key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.metrics.SetCacheEntries(len(c.entries))
}

// Len returns the number of stored keys, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.metrics.SetCacheEntries(0)
}
