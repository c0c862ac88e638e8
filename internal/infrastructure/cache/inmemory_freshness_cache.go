package cache

import (
	"context"
	"sync"
	"time"

	appsync "github.com/edusync/backend/internal/application/sync"
	syncdomain "github.com/edusync/backend/internal/domain/sync"
)

type freshnessEntry struct {
	snapshot  appsync.Freshness
	expiresAt time.Time
}

// InMemoryFreshnessCache caches freshness snapshots in a map. Suitable for
// single-instance deployments and testing.
type InMemoryFreshnessCache struct {
	mu      sync.RWMutex
	entries map[syncdomain.EntityType]freshnessEntry
	ttl     time.Duration
}

// NewInMemoryFreshnessCache creates a new in-memory freshness cache
func NewInMemoryFreshnessCache(ttl time.Duration) *InMemoryFreshnessCache {
	return &InMemoryFreshnessCache{
		entries: make(map[syncdomain.EntityType]freshnessEntry),
		ttl:     ttl,
	}
}

// GetFreshness returns the cached snapshot, or nil when absent or expired
func (c *InMemoryFreshnessCache) GetFreshness(ctx context.Context, entity syncdomain.EntityType) (*appsync.Freshness, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[entity]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, nil
	}
	snapshot := e.snapshot
	return &snapshot, nil
}

// SetFreshness stores the snapshot with the configured TTL
func (c *InMemoryFreshnessCache) SetFreshness(ctx context.Context, entity syncdomain.EntityType, f *appsync.Freshness) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[entity] = freshnessEntry{
		snapshot:  *f,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}

// Size returns the number of cached entries (for testing/monitoring)
func (c *InMemoryFreshnessCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryFreshnessCache implements FreshnessCache
var _ appsync.FreshnessCache = (*InMemoryFreshnessCache)(nil)
