package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edualert/edualert/internal/domain/ranking"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLACEMENT CACHE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PlacementCache implements ranking.PlacementCache on Redis. One key holds
// the whole board of one (scope, period) as a JSON array; the nightly
// ranking run invalidates the scope after rewriting the place columns.
type PlacementCache struct {
	cache *Cache
}

// NewPlacementCache creates a new PlacementCache.
func NewPlacementCache(cache *Cache) *PlacementCache {
	return &PlacementCache{cache: cache}
}

// GetPlacements returns the cached board of one scope and period, or nil
// on a cache miss.
func (c *PlacementCache) GetPlacements(ctx context.Context, scopeID string, scope ranking.Scope, period ranking.Period) ([]*ranking.PlacementEntry, error) {
	key := PlacementKey(scope.String(), scopeID, period.String())

	var entries []*ranking.PlacementEntry
	err := c.cache.Get(ctx, key, &entries)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get placement board: %w", err)
	}
	return entries, nil
}

// SetPlacements stores the board of one scope and period.
func (c *PlacementCache) SetPlacements(ctx context.Context, scopeID string, scope ranking.Scope, period ranking.Period, entries []*ranking.PlacementEntry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLPlacementCache
	}
	key := PlacementKey(scope.String(), scopeID, period.String())
	if err := c.cache.Set(ctx, key, entries, ttl); err != nil {
		return fmt.Errorf("failed to set placement board: %w", err)
	}
	return nil
}

// InvalidateScope drops every cached board of one scope ID, across all
// scopes and periods.
func (c *PlacementCache) InvalidateScope(ctx context.Context, scopeID string) error {
	pattern := PrefixPlacement + "*:" + scopeID + ":*"
	if err := c.cache.DeleteByPattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to invalidate placement boards: %w", err)
	}
	return nil
}
