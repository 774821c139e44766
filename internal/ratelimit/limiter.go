// Package ratelimit provides a fixed-window request limiter keyed by
// client identity.
package ratelimit

import (
	"sync"
	"time"
)

type entry struct {
	count int
	reset time.Time
}

// Limiter counts requests per key inside a fixed window. When the
// window elapses the count starts over; there is no sliding credit.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   int
	window  time.Duration

	now func() time.Time
}

// New creates a limiter allowing limit requests per window for each key.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow reports whether the request identified by key may proceed, and
// counts it if so. A rejected request does not consume budget.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	e, ok := l.entries[key]
	if !ok || now.After(e.reset) {
		l.evictStale(now)
		l.entries[key] = &entry{count: 1, reset: now.Add(l.window)}
		return true
	}

	if e.count >= l.limit {
		return false
	}
	e.count++
	return true
}

// Remaining reports how many requests the key has left in its current
// window. A key with no live entry has the full budget.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || l.now().After(e.reset) {
		return l.limit
	}
	if e.count >= l.limit {
		return 0
	}
	return l.limit - e.count
}

// evictStale drops expired entries so the map does not grow with
// one-off clients. Caller holds the lock.
func (l *Limiter) evictStale(now time.Time) {
	for key, e := range l.entries {
		if now.After(e.reset) {
			delete(l.entries, key)
		}
	}
}
