// Package cache provides thread-safe generic caching, including a
// TTL-bounded snapshot cache for remote post listings.
package cache

import (
	"sync"
	"time"
)

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

func (c *Cache[K, V]) SetTo(items map[K]V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

// snapshot pairs a cached value slice with the time it was taken.
type snapshot[T any] struct {
	taken time.Time
	items []T
}

// TTLCache caches slices of T per key, expiring entries after a fixed
// TTL. Expired entries are dropped lazily on read.
type TTLCache[K comparable, T any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[K]snapshot[T]

	// now is swappable in tests.
	now func() time.Time
}

func NewTTLCache[K comparable, T any](ttl time.Duration) *TTLCache[K, T] {
	return &TTLCache[K, T]{
		ttl: ttl,
		m:   make(map[K]snapshot[T]),
		now: time.Now,
	}
}

func (c *TTLCache[K, T]) Get(key K) ([]T, bool) {
	c.mu.RLock()
	snap, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(snap.taken) >= c.ttl {
		c.Invalidate(key)
		return nil, false
	}
	return snap.items, true
}

func (c *TTLCache[K, T]) Set(key K, items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = snapshot[T]{taken: c.now(), items: items}
}

func (c *TTLCache[K, T]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}
