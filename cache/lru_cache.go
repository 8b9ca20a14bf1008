// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package cache provides the read-through cache in front of the binding
// tables.
package cache

import (
	"errors"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrInvalidSize is returned for a zero or oversized cache
var ErrInvalidSize = errors.New("invalid cache size")

// LRUCache is a bounded read-through cache. Values are fetched on a miss and
// kept until evicted, removed or purged.
type LRUCache[K comparable, V any] struct {
	cache *lru.Cache[K, V]
}

// NewLRUCache returns a cache holding at most [size] entries
func NewLRUCache[K comparable, V any](size uint64) (*LRUCache[K, V], error) {
	if size == 0 || size > math.MaxInt {
		return nil, ErrInvalidSize
	}
	c, err := lru.New[K, V](int(size))
	if err != nil {
		return nil, err
	}
	return &LRUCache[K, V]{cache: c}, nil
}

// Get checks if the cached value exists for a given key, otherwise fetches
// the value using fetchFunc. Failed fetches are not cached.
// If [invalidate] is true, the value will be cleared from the cache prior to fetching.
func (c *LRUCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	if invalidate {
		c.cache.Remove(key)
	} else if value, found := c.cache.Get(key); found {
		return value, nil
	}

	value, err := fetchFunc(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.cache.Add(key, value)
	return value, nil
}

// Remove drops key
func (c *LRUCache[K, V]) Remove(key K) {
	c.cache.Remove(key)
}

// Purge drops every entry
func (c *LRUCache[K, V]) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached entries
func (c *LRUCache[K, V]) Len() int {
	return c.cache.Len()
}
