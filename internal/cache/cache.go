// Package cache memoizes successful GET responses.
//
// Two pools with different TTLs share one Store contract; invalidation evicts
// every key containing a path substring, in both pools.
package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"taquilla/internal/metrics"
)

// QuickMaxTTL is the largest TTL served by the quick pool.
const QuickMaxTTL = 60 * time.Second

// Store is a TTL key/value store with substring key lookup.
type Store interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	// Set with ttl <= 0 uses the store's default TTL.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Keys returns every live key containing substr.
	Keys(ctx context.Context, substr string) ([]string, error)
	Flush(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

// Key builds the cache key for a request URI and caller.
func Key(requestURI, userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return requestURI + "_" + userID
}

// Pools holds the quick and general stores.
type Pools struct {
	Quick   Store
	General Store
}

func NewPools(quick, general Store) *Pools {
	return &Pools{Quick: quick, General: general}
}

// For picks the pool serving ttl.
func (p *Pools) For(ttl time.Duration) (Store, string) {
	if ttl <= QuickMaxTTL {
		return p.Quick, "quick"
	}
	return p.General, "general"
}

// Invalidate evicts keys containing any of patterns from both pools and
// returns how many were removed. Errors are logged per pool; eviction keeps
// going on the other pool.
func (p *Pools) Invalidate(ctx context.Context, patterns ...string) int {
	removed := 0
	for _, s := range []Store{p.Quick, p.General} {
		for _, pat := range patterns {
			keys, err := s.Keys(ctx, pat)
			if err != nil {
				log.Warn().Err(err).Str("pattern", pat).Msg("cache: key lookup failed")
				continue
			}
			if len(keys) == 0 {
				continue
			}
			if err := s.Delete(ctx, keys...); err != nil {
				log.Warn().Err(err).Str("pattern", pat).Msg("cache: delete failed")
				continue
			}
			removed += len(keys)
		}
	}
	metrics.CacheEvictions.Add(float64(removed))
	return removed
}

// Stats reports the number of live keys per pool.
type Stats struct {
	Quick   int `json:"quick"`
	General int `json:"general"`
}

func (p *Pools) Stats(ctx context.Context) (Stats, error) {
	q, err := p.Quick.Len(ctx)
	if err != nil {
		return Stats{}, err
	}
	g, err := p.General.Len(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Quick: q, General: g}, nil
}

// FlushAll empties both pools.
func (p *Pools) FlushAll(ctx context.Context) error {
	if err := p.Quick.Flush(ctx); err != nil {
		return err
	}
	return p.General.Flush(ctx)
}
