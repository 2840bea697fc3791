// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package cache provides a sharded LRU cache for results that are costly to
// recompute and safe to share, such as WGSL validation outcomes.
package cache

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// ShardCount is the number of independently locked shards. It is a
	// power of two so a mask selects the shard.
	ShardCount = 16

	// DefaultCapacity is the per-shard capacity used when none is given.
	DefaultCapacity = 64

	shardMask = ShardCount - 1
)

// Hasher maps a key to the hash used for shard selection.
type Hasher[K any] func(K) uint64

// StringHasher hashes string keys with xxhash.
func StringHasher(s string) uint64 { return xxhash.Sum64String(s) }

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Len    int
	Hits   uint64
	Misses uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Sharded is a concurrency-safe LRU cache split into ShardCount shards.
type Sharded[K comparable, V any] struct {
	shards   [ShardCount]*lru.Cache[K, V]
	hasher   Hasher[K]
	capacity int

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewSharded returns a cache holding up to capacity entries per shard.
// A capacity <= 0 selects DefaultCapacity.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K]) *Sharded[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Sharded[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		// lru.New only fails for a non-positive size.
		c.shards[i], _ = lru.New[K, V](capacity)
	}
	return c
}

func (c *Sharded[K, V]) shard(key K) *lru.Cache[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get returns the cached value for key and marks it recently used.
func (c *Sharded[K, V]) Get(key K) (V, bool) {
	v, ok := c.shard(key).Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores value under key, evicting the shard's oldest entry if full.
func (c *Sharded[K, V]) Set(key K, value V) {
	c.shard(key).Add(key, value)
}

// GetOrCreate returns the cached value or stores and returns create().
// create runs without a lock held, so concurrent misses on the same key
// may each call it; the last result wins.
func (c *Sharded[K, V]) GetOrCreate(key K, create func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := create()
	c.Set(key, v)
	return v
}

// Len returns the number of entries across all shards.
func (c *Sharded[K, V]) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.Len()
	}
	return n
}

// Capacity returns the total capacity across all shards.
func (c *Sharded[K, V]) Capacity() int {
	return c.capacity * ShardCount
}

// Purge empties the cache. Statistics are kept.
func (c *Sharded[K, V]) Purge() {
	for _, s := range c.shards {
		s.Purge()
	}
}

// Stats returns hit and miss counters and the current size.
func (c *Sharded[K, V]) Stats() Stats {
	return Stats{Len: c.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
