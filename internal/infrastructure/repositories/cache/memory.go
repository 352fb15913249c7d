package cache

import (
	"context"
	"sync"
	"time"

	"xrates-sync-service/internal/domain/interfaces"
)

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// ttl <= 0 significa sin expiración
func (item *cacheItem) expired(now time.Time) bool {
	return !item.expiresAt.IsZero() && now.After(item.expiresAt)
}

// MemoryCache es el backend en proceso, usado en desarrollo y tests
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]*cacheItem
	now   func() time.Time
}

func NewMemoryCache() interfaces.Cache {
	return newMemoryCache(time.Now)
}

func newMemoryCache(now func() time.Time) *MemoryCache {
	return &MemoryCache{
		items: make(map[string]*cacheItem),
		now:   now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return "", ErrKeyNotFound
	}
	if item.expired(c.now()) {
		_ = c.Delete(ctx, key)
		return "", ErrKeyExpired
	}
	return item.value, nil
}

// Set guarda el valor y de paso purga los expirados
func (c *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepLocked(now)

	item := &cacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = now.Add(ttl)
	}
	c.items[key] = item
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Ping siempre responde; existe para el readiness check
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	c.sweepLocked(c.now())
	c.mu.Unlock()
}

func (c *MemoryCache) sweepLocked(now time.Time) {
	for k, item := range c.items {
		if item.expired(now) {
			delete(c.items, k)
		}
	}
}
