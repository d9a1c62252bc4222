// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package containers

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// LruCache is safe for concurrent use.
// A zero or negative size means it has no capacity instead of unlimited.
type LruCache[K comparable, V any] struct {
	mutex     sync.Mutex
	inner     *simplelru.LRU[K, V]
	onEvicted simplelru.EvictCallback[K, V]
}

func NewLruCache[K comparable, V any](size int) *LruCache[K, V] {
	return NewLruCacheWithOnEvict[K, V](size, nil)
}

func NewLruCacheWithOnEvict[K comparable, V any](size int, onEvict func(K, V)) *LruCache[K, V] {
	var inner *simplelru.LRU[K, V]
	if size > 0 {
		// Can't fail because size > 0
		inner, _ = simplelru.NewLRU[K, V](size, onEvict)
	}
	return &LruCache[K, V]{
		inner:     inner,
		onEvicted: onEvict,
	}
}

func (c *LruCache[K, V]) Add(key K, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.inner == nil {
		return
	}
	c.inner.Add(key, value)
}

func (c *LruCache[K, V]) Get(key K) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.inner == nil {
		var empty V
		return empty, false
	}
	return c.inner.Get(key)
}

func (c *LruCache[K, V]) Contains(key K) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.inner == nil {
		return false
	}
	return c.inner.Contains(key)
}

func (c *LruCache[K, V]) Remove(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.inner == nil {
		return
	}
	c.inner.Remove(key)
}

func (c *LruCache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.inner == nil {
		return 0
	}
	return c.inner.Len()
}

func (c *LruCache[K, V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.inner == nil {
		return
	}
	c.inner.Purge()
}

func (c *LruCache[K, V]) Resize(newSize int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if newSize <= 0 {
		if c.inner != nil && c.onEvicted != nil {
			c.inner.Purge() // run the evict functions
		}
		c.inner = nil
	} else if c.inner == nil {
		// Can't fail because newSize > 0
		c.inner, _ = simplelru.NewLRU[K, V](newSize, c.onEvicted)
	} else {
		c.inner.Resize(newSize)
	}
}
