package memory

import (
	"context"
	"sync"
	"time"
)

// Cache is an in-memory TTL cache
type Cache struct {
	mu     sync.RWMutex
	items  map[string]cacheItem
	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// NewCache creates a cache that sweeps expired items every interval. A
// non-positive interval disables the sweeper.
func NewCache(interval time.Duration) *Cache {
	c := &Cache{
		items:  make(map[string]cacheItem),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	if interval > 0 {
		go c.cleanupExpired(interval)
	}
	return c
}

// Get retrieves a value from cache
func (c *Cache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || !c.now().Before(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

// Set stores a value in cache for ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a value from cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Clear removes all values from cache
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheItem)
	return nil
}

// Len returns the number of stored items, expired ones included
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the sweeper
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stopCh) })
}

func (c *Cache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
		}
	}
}
