// Package cache memoizes computed indicators per (asset, timeframe) for a
// short TTL so rapid UI interactions (timeframe tab switching) see stable
// values instead of recomputation jitter.
package cache

import (
	"strings"
	"sync"
	"time"

	"marketpulse/internal/model"
)

// DefaultTTL is the stabilization window.
const DefaultTTL = 5000 * time.Millisecond

// Cache is an explicitly constructed memoization layer with an injected
// clock. There is no single-flight guarantee: concurrent misses for the
// same key may each recompute, and that duplication is accepted.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	storedAt   time.Time
	timeframe  model.Interval
	indicators model.TechnicalIndicators
	patterns   []model.PatternDetection
}

// New creates a cache. A nil clock falls back to time.Now.
func New(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry),
	}
}

func key(asset model.Asset, tf model.Interval) string {
	return string(asset) + "|" + string(tf)
}

// Get returns the stored value only while now - storedAt < TTL. A stale
// entry behaves as a miss; it is left in place and overwritten by the
// next Put rather than proactively evicted.
func (c *Cache) Get(asset model.Asset, tf model.Interval) (model.TechnicalIndicators, []model.PatternDetection, bool) {
	c.mu.RLock()
	e, ok := c.entries[key(asset, tf)]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		return model.TechnicalIndicators{}, nil, false
	}
	return e.indicators, e.patterns, true
}

// Put overwrites the entry unconditionally and resets its age clock.
func (c *Cache) Put(asset model.Asset, tf model.Interval, ind model.TechnicalIndicators, patterns []model.PatternDetection) {
	c.mu.Lock()
	c.entries[key(asset, tf)] = entry{
		storedAt:   c.now(),
		timeframe:  tf,
		indicators: ind,
		patterns:   patterns,
	}
	c.mu.Unlock()
}

// Invalidate removes all entries for one asset across every timeframe.
func (c *Cache) Invalidate(asset model.Asset) {
	prefix := string(asset) + "|"
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// InvalidateAll clears the whole cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of entries currently held, stale ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
