// file: internal/cache/cache.go
// version: 2.0.0
// guid: 9e0fdaf3-279a-4ccf-a912-5a17a6ebd2eb

package cache

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value    T
	deadline int64 // unix nanos
}

// Cache is a generic TTL cache safe for concurrent use. The watch
// command uses it to suppress re-reporting digests computed moments ago.
type Cache[T any] struct {
	mu    sync.RWMutex
	items map[string]entry[T]
	ttl   time.Duration
}

// New creates a cache with the given default TTL.
func New[T any](defaultTTL time.Duration) *Cache[T] {
	return &Cache[T]{
		items: make(map[string]entry[T]),
		ttl:   defaultTTL,
	}
}

// Get retrieves a value if it exists and hasn't expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().UnixNano() > e.deadline {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the default TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a specific TTL. Expired entries are
// pruned opportunistically so long-running watchers don't leak.
func (c *Cache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	now := time.Now().UnixNano()
	c.mu.Lock()
	for k, e := range c.items {
		if now > e.deadline {
			delete(c.items, k)
		}
	}
	c.items[key] = entry[T]{value: value, deadline: now + ttl.Nanoseconds()}
	c.mu.Unlock()
}

// Invalidate removes a single key.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// InvalidateAll removes all entries.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	c.items = make(map[string]entry[T])
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
