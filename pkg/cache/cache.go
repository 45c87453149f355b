/*
 * Copyright 2026 The Quire Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cache provides an expiring LRU cache with hit statistics.
package cache

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrInvalidMaxSize is returned when the given max size is not positive.
var ErrInvalidMaxSize = errors.New("max size must be > 0")

// Stats holds cache statistics.
type Stats struct {
	hits   int64
	misses int64
}

// Hits returns the number of cache hits.
func (s *Stats) Hits() int64 {
	return atomic.LoadInt64(&s.hits)
}

// Misses returns the number of cache misses.
func (s *Stats) Misses() int64 {
	return atomic.LoadInt64(&s.misses)
}

// Total returns the total number of lookups.
func (s *Stats) Total() int64 {
	return s.Hits() + s.Misses()
}

// HitRate returns the hit rate as a percentage (0-100).
func (s *Stats) HitRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits()) / float64(total) * 100.0
}

// LRU is a size-bounded cache whose entries expire after a fixed ttl.
type LRU[K comparable, V any] struct {
	cache *expirable.LRU[K, V]
	stats *Stats
	name  string
}

// NewLRU creates a cache of at most size entries kept for ttl.
func NewLRU[K comparable, V any](size int, ttl time.Duration, name string) (*LRU[K, V], error) {
	if size <= 0 {
		return nil, ErrInvalidMaxSize
	}

	return &LRU[K, V]{
		cache: expirable.NewLRU[K, V](size, nil, ttl),
		stats: &Stats{},
		name:  name,
	}, nil
}

// Get retrieves a value and updates statistics.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	value, ok := c.cache.Get(key)
	if ok {
		atomic.AddInt64(&c.stats.hits, 1)
	} else {
		atomic.AddInt64(&c.stats.misses, 1)
	}
	return value, ok
}

// GetOrLoad returns the cached value of key, calling load and caching its
// result on a miss. Errors are not cached.
func (c *LRU[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	c.cache.Add(key, value)
	return value, nil
}

// Add adds a value to the cache. It returns true if an entry was evicted.
func (c *LRU[K, V]) Add(key K, value V) bool {
	return c.cache.Add(key, value)
}

// Remove removes a key from the cache.
func (c *LRU[K, V]) Remove(key K) bool {
	return c.cache.Remove(key)
}

// Purge clears all entries from the cache.
func (c *LRU[K, V]) Purge() {
	c.cache.Purge()
}

// Len returns the number of entries in the cache.
func (c *LRU[K, V]) Len() int {
	return c.cache.Len()
}

// Stats returns the cache statistics.
func (c *LRU[K, V]) Stats() *Stats {
	return c.stats
}

// Name returns the cache name.
func (c *LRU[K, V]) Name() string {
	return c.name
}
