package schema_registry

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// cache is a capacity-bounded cache whose hits only take the read lock.
// A hit marks the entry as referenced instead of reordering the list. When
// the cache is full, referenced entries at the old end are moved to the
// front and unmarked, and the oldest unreferenced entry is evicted. Entries
// never expire.
type cache[K comparable, V any] struct {
	mu   sync.RWMutex
	size int
	lru  *simplelru.LRU[K, *cacheEntry[V]]
}

type cacheEntry[V any] struct {
	value      V
	referenced atomic.Bool
}

func newCache[K comparable, V any](size int) (*cache[K, V], error) {
	l, err := simplelru.NewLRU[K, *cacheEntry[V]](size, nil)
	if err != nil {
		return nil, err
	}
	return &cache[K, V]{size: size, lru: l}, nil
}

func (c *cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.lru.Peek(key)
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	e.referenced.Store(true)
	return e.value, true
}

func (c *cache[K, V]) Contains(key K) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Contains(key)
}

func (c *cache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lru.Contains(key) {
		// Each pass unmarks one entry, so this ends within size passes.
		for c.lru.Len() >= c.size {
			oldest, e, ok := c.lru.GetOldest()
			if !ok || !e.referenced.Load() {
				break
			}
			e.referenced.Store(false)
			c.lru.Get(oldest)
		}
	}
	c.lru.Add(key, &cacheEntry[V]{value: value})
}

func (c *cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}
