// Package redis holds an optional shared quote cache in front of the
// exchange ticker endpoints. Every method is safe on a nil receiver so
// the service runs unchanged without Redis.
package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"marketpulse/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// DefaultQuoteTTL bounds how stale a shared snapshot may get.
const DefaultQuoteTTL = 3 * time.Second

// QuoteCache stores MarketSnapshots per asset with a short TTL.
type QuoteCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewQuoteCache creates a quote cache. A zero ttl uses DefaultQuoteTTL.
func NewQuoteCache(rdb *goredis.Client, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	return &QuoteCache{rdb: rdb, ttl: ttl}
}

func quoteKey(asset model.Asset) string {
	return "quote:" + string(asset)
}

// GetSnapshot returns the cached snapshot for one asset, or ok=false on a
// miss, an unreachable Redis, or a nil cache.
func (q *QuoteCache) GetSnapshot(ctx context.Context, asset model.Asset) (*model.MarketSnapshot, bool) {
	if q == nil || q.rdb == nil {
		return nil, false
	}
	raw, err := q.rdb.Get(ctx, quoteKey(asset)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			log.Printf("[redis] quote read failed for %s: %v", asset, err)
		}
		return nil, false
	}
	var snap model.MarketSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Printf("[redis] bad quote payload for %s: %v", asset, err)
		return nil, false
	}
	return &snap, true
}

// SetSnapshot stores a snapshot with the cache TTL. Failures are logged
// and ignored — the cache is an optimization, not a dependency.
func (q *QuoteCache) SetSnapshot(ctx context.Context, snap *model.MarketSnapshot) {
	if q == nil || q.rdb == nil || snap == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := q.rdb.Set(ctx, quoteKey(snap.Asset), raw, q.ttl).Err(); err != nil {
		log.Printf("[redis] quote write failed for %s: %v", snap.Asset, err)
	}
}
