package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// Metrics receives hit/miss notifications
type Metrics interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

// DefaultMaxEntries bounds the cache when no limit is given
const DefaultMaxEntries = 10000

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (c *CacheItem) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Cache provides thread-safe caching with TTL
type Cache struct {
	mu      sync.RWMutex
	items   map[string]*CacheItem
	ttl        time.Duration
	maxEntries int
	evictions  int64
	metrics    Metrics
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCache creates a cache holding at most maxEntries items (DefaultMaxEntries
// when <= 0) and starts its sweeper. A nil metrics sink is allowed.
func NewCache(ttl time.Duration, maxEntries int, metrics Metrics) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	c := &Cache{
		items:      make(map[string]*CacheItem),
		ttl:        ttl,
		maxEntries: maxEntries,
		metrics:    metrics,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go c.cleanup(time.Minute)

	return c
}

func (c *Cache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(c.now())
}

func (c *Cache) sweepLocked(now time.Time) {
	for key, item := range c.items {
		if item.IsExpired(now) {
			delete(c.items, key)
		}
	}
}

// evictLocked makes room for one new item, dropping expired items first and
// then the item closest to expiry
func (c *Cache) evictLocked(now time.Time) {
	c.sweepLocked(now)
	if len(c.items) < c.maxEntries {
		return
	}

	var oldestKey string
	var oldest time.Time
	for key, item := range c.items {
		if oldestKey == "" || item.ExpiresAt.Before(oldest) {
			oldestKey, oldest = key, item.ExpiresAt
		}
	}
	delete(c.items, oldestKey)
	c.evictions++
}

// Key derives a stable cache key from any JSON-encodable value
func Key(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || item.IsExpired(c.now()) {
		if c.metrics != nil {
			c.metrics.IncrementCacheMiss()
		}
		return nil, false
	}

	if c.metrics != nil {
		c.metrics.IncrementCacheHit()
	}
	return item.Data, true
}

// Set stores an item in the cache
func (c *Cache) Set(key string, data []byte) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.items[key] = &CacheItem{
		Data:      data,
		ExpiresAt: now.Add(c.ttl),
	}
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Size returns the number of items in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	totalItems := len(c.items)
	expiredItems := 0
	for _, item := range c.items {
		if item.IsExpired(now) {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"max_items":     c.maxEntries,
		"evictions":     c.evictions,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// Close stops the sweeper goroutine
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}
