// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the lifetime of an entry that is stored without an explicit TTL.
const DefaultTTL = time.Minute * 5

// Store is the contract shared by all cache backends.
type Store[K comparable, V any] interface {
	Set(key K, value V, ttl ...time.Duration)
	Get(key K) (V, bool)
	Clear()
	Len() int
}

type item[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

func (i *item[V]) expired(now time.Time) bool {
	return now.Sub(i.storedAt) > i.ttl
}

// Cache is a process-local TTL map. Expired entries are removed when they are
// looked up, or by the optional sweep goroutine.
type Cache[K comparable, V any] struct {
	mu         sync.Mutex
	items      map[K]*item[V]
	defaultTTL time.Duration
	now        func() time.Time

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
	started       bool
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	defaultTTL    time.Duration
	now           func() time.Time
	sweepInterval time.Duration
}

// WithDefaultTTL overrides DefaultTTL for entries stored without a TTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.defaultTTL = ttl
		}
	}
}

// WithClock sets the time source of the cache.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSweepInterval enables a periodic removal of expired entries once Start
// has been called. A zero interval keeps the cache purely lazy.
func WithSweepInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}

// New returns an empty cache.
func New[K comparable, V any](opts ...Option) *Cache[K, V] {
	o := &options{
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Cache[K, V]{
		items:         make(map[K]*item[V]),
		defaultTTL:    o.defaultTTL,
		now:           o.now,
		sweepInterval: o.sweepInterval,
		stop:          make(chan struct{}),
	}
}

// Set stores value under key, replacing any previous entry. Only the first
// ttl argument is used; without it the default TTL applies.
func (c *Cache[K, V]) Set(key K, value V, ttl ...time.Duration) {
	lifetime := c.defaultTTL
	if len(ttl) > 0 {
		lifetime = max(ttl[0], 0)
	}

	c.mu.Lock()
	c.items[key] = &item[V]{
		value:    value,
		storedAt: c.now(),
		ttl:      lifetime,
	}
	c.mu.Unlock()
}

// Get returns the value stored under key. The second return value is false if
// the key is unknown or its entry has expired. An expired entry is removed.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	cacheItem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if cacheItem.expired(c.now()) {
		delete(c.items, key)
		return zero, false
	}

	return cacheItem.value, true
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	clear(c.items)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired entries that
// have not been looked up yet.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Start launches the sweep goroutine. It does nothing if no sweep interval
// was configured or the sweeper is already running.
func (c *Cache[K, V]) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sweepInterval <= 0 || c.started {
		return
	}
	c.started = true
	go c.sweepLoop(c.sweepInterval)
}

// Stop shuts down the sweep goroutine. It is safe to call more than once.
func (c *Cache[K, V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Cache[K, V]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[K, V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, it := range c.items {
		if it.expired(now) {
			delete(c.items, k)
		}
	}
}
