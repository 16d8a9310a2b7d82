// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package ttlstore provides a cache.Store backed by github.com/jellydator/ttlcache.
package ttlstore

import (
	"time"

	"github.com/jellydator/ttlcache/v2"

	"github.com/wneessen/shopkeep/internal/cache"
)

type Store[V any] struct {
	cache      *ttlcache.Cache
	defaultTTL time.Duration
}

// New returns a Store. Entries stored without a TTL live for defaultTTL, or for
// cache.DefaultTTL if defaultTTL is not positive.
func New[V any](defaultTTL time.Duration) *Store[V] {
	if defaultTTL <= 0 {
		defaultTTL = cache.DefaultTTL
	}
	c := ttlcache.NewCache()
	// Expiry is relative to insertion, reads must not extend it
	c.SkipTTLExtensionOnHit(true)
	_ = c.SetTTL(defaultTTL)

	return &Store[V]{cache: c, defaultTTL: defaultTTL}
}

// Set stores value under key, replacing any previous entry.
func (s *Store[V]) Set(key string, value V, ttl ...time.Duration) {
	lifetime := s.defaultTTL
	if len(ttl) > 0 {
		lifetime = ttl[0]
	}
	// ttlcache treats zero as "use the global TTL"
	if lifetime <= 0 {
		lifetime = time.Nanosecond
	}
	_ = s.cache.SetWithTTL(key, value, lifetime)
}

// Get returns the value stored under key, if it exists and has not expired.
func (s *Store[V]) Get(key string) (V, bool) {
	var zero V
	data, err := s.cache.Get(key)
	if err != nil {
		return zero, false
	}
	value, ok := data.(V)
	if !ok {
		return zero, false
	}
	return value, true
}

// Clear removes all entries.
func (s *Store[V]) Clear() {
	_ = s.cache.Purge()
}

// Len returns the number of entries currently held by the underlying cache.
func (s *Store[V]) Len() int {
	return s.cache.Count()
}

// Close stops the expiry goroutine of the underlying cache.
func (s *Store[V]) Close() error {
	return s.cache.Close()
}
