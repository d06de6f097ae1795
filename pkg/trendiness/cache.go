package trendiness

import (
	"time"

	"github.com/maypok86/otter/v2"
)

// MemoryCache is an in-memory TTL cache for trendiness scores.
type MemoryCache struct {
	cache otter.Cache[string, float64]
}

// NewMemoryCache creates a score cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache := otter.Must(&otter.Options[string, float64]{
		MaximumSize:      10_000,
		ExpiryCalculator: otter.ExpiryWriting[string, float64](ttl),
	})
	return &MemoryCache{cache: *cache}
}

// Get returns the cached score for a key, if present.
func (c *MemoryCache) Get(key string) (float64, bool) {
	return c.cache.GetIfPresent(key)
}

// Put stores a score.
func (c *MemoryCache) Put(key string, score float64) {
	c.cache.Set(key, score)
}

// Clear drops every cached score.
func (c *MemoryCache) Clear() {
	c.cache.InvalidateAll()
}

// Len reports the estimated number of cached scores.
func (c *MemoryCache) Len() int {
	return int(c.cache.EstimatedSize())
}
