// Package cache holds resolved locations keyed by normalized place string.
// It is an accelerator only; correctness never depends on it.
package cache

import (
	"sync"
	"time"

	"github.com/astromitra/horoscope-engine/internal/astro"
)

type entry struct {
	location  astro.ResolvedLocation
	expiresAt time.Time
}

// LocationCache is a concurrency-safe TTL cache for geocoding results.
type LocationCache struct {
	mu   sync.RWMutex
	data map[string]entry
	ttl  time.Duration
}

// New creates a cache whose entries expire after ttl. A ttl <= 0 disables
// expiry.
func New(ttl time.Duration) *LocationCache {
	return &LocationCache{
		data: make(map[string]entry),
		ttl:  ttl,
	}
}

// Get returns the cached location for key if present and unexpired.
func (c *LocationCache) Get(key string) (astro.ResolvedLocation, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		return astro.ResolvedLocation{}, false
	}
	if c.ttl > 0 && time.Now().After(e.expiresAt) {
		return astro.ResolvedLocation{}, false
	}
	return e.location, true
}

// Set stores loc under key.
func (c *LocationCache) Set(key string, loc astro.ResolvedLocation) {
	c.mu.Lock()
	c.data[key] = entry{location: loc, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops the entry for key, if any.
func (c *LocationCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

// EvictExpired removes stale entries and returns how many were dropped.
// Called periodically by the scheduler.
func (c *LocationCache) EvictExpired() int {
	if c.ttl <= 0 {
		return 0
	}

	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, e := range c.data {
		if now.After(e.expiresAt) {
			delete(c.data, key)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of entries, expired or not.
func (c *LocationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
