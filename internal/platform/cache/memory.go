package cache

import (
	"context"
	"sync"
	"time"

	"github.com/SscSPs/khata_backend/internal/core/ports/repositories"
)

type memoryEntry struct {
	value     repositories.CachedBalance
	expiresAt time.Time
}

// MemoryBalanceCache is an in-process BalanceCache.
type MemoryBalanceCache struct {
	mu       sync.Mutex
	versions map[string]int64
	entries  map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryBalanceCache creates an empty cache.
func NewMemoryBalanceCache() *MemoryBalanceCache {
	return &MemoryBalanceCache{
		versions: make(map[string]int64),
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
	}
}

var _ repositories.BalanceCache = (*MemoryBalanceCache)(nil)

func (c *MemoryBalanceCache) Version(_ context.Context, userID, shopID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[balanceKey(userID, shopID)], nil
}

func (c *MemoryBalanceCache) Get(_ context.Context, userID, shopID string) (*repositories.CachedBalance, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := balanceKey(userID, shopID)
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	value := e.value
	return &value, true, nil
}

func (c *MemoryBalanceCache) Set(_ context.Context, userID, shopID string, value repositories.CachedBalance, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[balanceKey(userID, shopID)] = e
	return nil
}

func (c *MemoryBalanceCache) Bump(_ context.Context, userID, shopID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := balanceKey(userID, shopID)
	c.versions[key]++
	delete(c.entries, key)
	return nil
}

func balanceKey(userID, shopID string) string {
	return userID + ":" + shopID
}
