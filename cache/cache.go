// Package cache implements the two-layer Cache Layer (C10): a bean
// cache keyed by primary key and a query cache keyed by a query
// fingerprint, each bounded by size and entry age. No third-party
// cache library appears anywhere in the example corpus this module
// was grounded on (a deliberate, documented gap — see the project's
// design ledger), so this is a small size/TTL-bounded LRU built on
// container/list and sync, in the same spirit as the teacher's other
// hand-rolled concurrency primitives.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
}

// Cache is a size- and age-bounded LRU. The zero value is not usable;
// use New. A Cache with maxSize <= 0 is unbounded by size (TTL-only);
// one with ttl <= 0 never expires entries by age.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	ll      *list.List
	items   map[K]*list.Element
}

func New[K comparable, V any](maxSize int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		maxSize: maxSize,
		ttl:     ttl,
		ll:      list.New(),
		items:   map[K]*list.Element{},
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.ttl > 0 && time.Now().After(e.expires) {
		c.ll.Remove(el)
		delete(c.items, key)
		return zero, false
	}
	c.ll.MoveToFront(el)
	return e.value, true
}

// Put stores value under key, evicting the least-recently-used entry
// if the cache is at capacity.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var expires time.Time
	if c.ttl > 0 {
		expires = time.Now().Add(c.ttl)
	}
	if el, ok := c.items[key]; ok {
		el.Value = &entry[K, V]{key: key, value: value, expires: expires}
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&entry[K, V]{key: key, value: value, expires: expires})
	c.items[key] = el
	if c.maxSize > 0 && c.ll.Len() > c.maxSize {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry[K, V]).key)
		}
	}
}

// Evict removes a single key, if present.
func (c *Cache[K, V]) Evict(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}

// Clear empties the cache entirely (spec §4.10's "clear all").
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = map[K]*list.Element{}
}

// Config controls the size/TTL knobs for one cache instance, per spec
// §4.10's "maximum_size and expire_after_write".
type Config struct {
	MaxSize       int
	ExpireAfterWrite time.Duration
}
