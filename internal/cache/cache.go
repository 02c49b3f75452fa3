// Package cache provides an in-memory, time-bounded cache whose concurrent
// misses for the same key share a single fetch.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = time.Hour

// FetchFunc loads the value for a key on a cache miss.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// StatsRecorder is notified about cache hits and misses.
type StatsRecorder interface {
	RecordHit(ctx context.Context, cache string)
	RecordMiss(ctx context.Context, cache string)
}

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Cache maps keys to values fetched on demand. Entries live for the
// configured TTL and are replaced on the first access after they expire.
// Failed fetches are never stored.
type Cache[K comparable, V any] struct {
	name   string
	ttl    time.Duration
	bypass bool
	now    func() time.Time
	stats  StatsRecorder

	mu      sync.RWMutex
	entries map[K]entry[V]
	flights singleflight.Group
}

// Option configures a Cache.
type Option func(*config)

type config struct {
	ttl    time.Duration
	bypass bool
	now    func() time.Time
	stats  StatsRecorder
}

// WithTTL sets how long a fetched value stays live. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithBypass disables lookups and stores; every call fetches.
func WithBypass(bypass bool) Option {
	return func(c *config) {
		c.bypass = bypass
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithStatsRecorder reports hits and misses to r.
func WithStatsRecorder(r StatsRecorder) Option {
	return func(c *config) {
		c.stats = r
	}
}

// New creates an empty cache. The name is used when reporting statistics.
func New[K comparable, V any](name string, opts ...Option) *Cache[K, V] {
	cfg := &config{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Cache[K, V]{
		name:    name,
		ttl:     cfg.ttl,
		bypass:  cfg.bypass,
		now:     cfg.now,
		stats:   cfg.stats,
		entries: make(map[K]entry[V]),
	}
}

// Get returns the live value for key, calling fetch on a miss. Concurrent
// misses for the same key wait for one fetch; each caller still returns as
// soon as its own context is done.
func (c *Cache[K, V]) Get(ctx context.Context, key K, fetch FetchFunc[V]) (V, error) {
	var zero V

	if c.bypass {
		c.recordMiss(ctx)
		return fetch(ctx)
	}

	if v, ok := c.lookup(key); ok {
		c.recordHit(ctx)
		return v, nil
	}
	c.recordMiss(ctx)

	flightKey := fmt.Sprintf("%#v", key)
	for {
		ch := c.flights.DoChan(flightKey, func() (any, error) {
			if v, ok := c.lookup(key); ok {
				return v, nil
			}
			v, err := fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil, &abandonedError{err: err}
				}
				return nil, err
			}
			c.store(key, v)
			return v, nil
		})

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// The leading caller gave up; its cancellation is not ours.
				var abandoned *abandonedError
				if errors.As(res.Err, &abandoned) {
					if ctx.Err() == nil {
						continue
					}
					return zero, abandoned.err
				}
				return zero, res.Err
			}
			v, _ := res.Val.(V)
			return v, nil
		}
	}
}

// Len returns the number of stored entries, including expired ones not yet replaced.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache[K, V]) lookup(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.live(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[K, V]) store(key K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if !c.live(e) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = entry[V]{value: v, fetchedAt: c.now()}
}

func (c *Cache[K, V]) live(e entry[V]) bool {
	return c.now().Sub(e.fetchedAt) < c.ttl
}

func (c *Cache[K, V]) recordHit(ctx context.Context) {
	if c.stats != nil {
		c.stats.RecordHit(ctx, c.name)
	}
}

func (c *Cache[K, V]) recordMiss(ctx context.Context) {
	if c.stats != nil {
		c.stats.RecordMiss(ctx, c.name)
	}
}

// abandonedError marks a fetch that failed because the context of the
// caller running it was done, as opposed to a failure of the fetch itself.
type abandonedError struct {
	err error
}

func (e *abandonedError) Error() string { return e.err.Error() }

func (e *abandonedError) Unwrap() error { return e.err }
