// Package memo provides the bounded LRU memoization cache Compose uses
// to avoid recomputing a oneOf/anyOf branch decision for a repeated
// memoKey (spec.md §5 "Shared resources": "The LRU memo cache is owned
// by a single Compose invocation unless the caller supplies an external
// one").
//
// Grounded on
// _examples/Keyhole-Koro-InsightifyCore/internal/gateway/repository/projectstore/store.go's
// `artifactCache *lru.Cache[string, []ProjectArtifact]` read-through
// field and its `NewPostgresStore(client, cache)` constructor-injection
// pattern. In this module no cache is handed in: Compose constructs one
// Cache per call from Cache.LRUSize. Library:
// github.com/hashicorp/golang-lru/v2, the same one that repo imports.
package memo

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a bounded, read-through memoization cache keyed by a memoKey
// string (Compose builds it as "canonPath|seed|keyword"; no canonical-JSON
// hashing is involved). The zero value is not usable; construct with New.
type Cache[V any] struct {
	inner *lru.Cache[string, V]
}

// New builds a Cache bounded to size entries (spec.md §6's
// cache.lruSize plan option). Panics if size <= 0, matching
// golang-lru/v2's own constructor contract.
func New[V any](size int) *Cache[V] {
	c, err := lru.New[string, V](size)
	if err != nil {
		panic(err)
	}
	return &Cache[V]{inner: c}
}

// Get returns the cached value for key, or the zero value and false.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.inner.Get(key)
}

// Put stores value under key, evicting the least-recently-used entry if
// the cache is at capacity.
func (c *Cache[V]) Put(key string, value V) {
	c.inner.Add(key, value)
}

// GetOrCompute returns the cached value for key if present; otherwise it
// calls compute, stores the result, and returns it. hit reports whether
// the value came from the cache (useful for diagnostics.Metrics.MemoKeys
// accounting at the call site, which should count misses).
func (c *Cache[V]) GetOrCompute(key string, compute func() V) (value V, hit bool) {
	if v, ok := c.inner.Get(key); ok {
		return v, true
	}
	v := compute()
	c.inner.Add(key, v)
	return v, false
}

// Len reports the number of entries currently cached.
func (c *Cache[V]) Len() int { return c.inner.Len() }

// Purge empties the cache. Compose never calls it: each Compose call
// builds its own Cache and drops it when the call returns.
func (c *Cache[V]) Purge() { c.inner.Purge() }
