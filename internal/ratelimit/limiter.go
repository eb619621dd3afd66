// Package ratelimit throttles requests per client key with token buckets
// from golang.org/x/time/rate.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config sets the per-key budget. A zero PerMinute disables limiting.
type Config struct {
	PerMinute int `yaml:"per_minute" toml:"per_minute"`
	Burst     int `yaml:"burst" toml:"burst"`
}

// Enabled reports whether limiting is on.
func (c *Config) Enabled() bool {
	return c.PerMinute > 0
}

// GetBurst returns the burst size, defaulting to PerMinute.
func (c *Config) GetBurst() int {
	if c.Burst <= 0 {
		return c.PerMinute
	}
	return c.Burst
}

// idleAfter is how long an unused bucket is kept before pruning.
const idleAfter = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key. It is safe for concurrent use.
type KeyedLimiter struct {
	buckets   map[string]*bucket
	now       func() time.Time
	limit     rate.Limit
	burst     int
	lastPrune time.Time
	mu        sync.Mutex
}

// NewKeyedLimiter creates a limiter from cfg, or returns nil when cfg
// disables limiting. A nil *KeyedLimiter allows everything.
func NewKeyedLimiter(cfg Config) *KeyedLimiter {
	if !cfg.Enabled() {
		return nil
	}
	return &KeyedLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		limit:   rate.Limit(float64(cfg.PerMinute) / 60.0),
		burst:   cfg.GetBurst(),
	}
}

// Allow takes one token from the bucket of key.
func (l *KeyedLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.prune(now)

	return b.limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// prune drops idle buckets at most once per idleAfter. Callers hold mu.
func (l *KeyedLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < idleAfter {
		return
	}
	l.lastPrune = now
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) >= idleAfter {
			delete(l.buckets, k)
		}
	}
}
