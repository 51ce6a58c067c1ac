package source

import (
	"context"
	"strings"
	"time"

	"github.com/okian/swing/internal/domain/artifactcache"
)

var _ GameLister = (*CachedLister)(nil)

// CachedLister remembers per-day schedule lookups so repeated batch
// resolution over overlapping ranges reads the source once per day.
type CachedLister struct {
	next  GameLister
	cache artifactcache.Cache[[]string]
}

// NewCachedLister wraps next with cache.
func NewCachedLister(next GameLister, cache artifactcache.Cache[[]string]) *CachedLister {
	return &CachedLister{next: next, cache: cache}
}

// ListGames implements GameLister, one cache entry per (league, day).
func (c *CachedLister) ListGames(ctx context.Context, league string, r DateRange) ([]string, error) {
	source := strings.ToLower(league)
	out := []string{}
	for _, day := range r.Days() {
		key := artifactcache.Key{Source: source, Date: day}
		if ids, ok := c.cache.Get(ctx, key); ok {
			out = append(out, ids...)
			continue
		}
		d, _ := time.Parse(DateLayout, day)
		ids, err := c.next.ListGames(ctx, league, DateRange{From: d, To: d})
		if err != nil {
			return nil, err
		}
		c.cache.Put(ctx, key, append([]string(nil), ids...))
		out = append(out, ids...)
	}
	return out, nil
}
