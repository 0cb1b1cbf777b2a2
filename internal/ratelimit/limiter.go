// Package ratelimit implements a fixed-window attempt counter keyed by
// client address. Counters are process-local and deliberately not
// persisted: a restart clears them, which is an accepted trade-off for a
// single-process deployment.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter counts attempts per key within a fixed window. Allow is called
// before any downstream I/O so that repeated slow or hanging auth calls
// still consume attempts.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	maxAttempts int
	window      time.Duration

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

func New(maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
}

// Allow records one attempt for key. It returns true when the attempt is
// within budget. When the budget is exhausted it returns false and the
// time remaining until the window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		// Fresh window, including the boundary-crossing case: a key that
		// was blocked becomes attempt #1 again, never "still blocked".
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return true, 0
	}

	if b.count >= l.maxAttempts {
		return false, b.resetAt.Sub(now)
	}

	b.count++

	return true, 0
}

// StartPurge launches the background goroutine that drops expired
// buckets. The interval is independent of, and coarser than, the
// limiting window; it only bounds memory.
func (l *Limiter) StartPurge(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Purge()
			case <-l.stop:
				return
			}
		}
	}()
}

// Purge removes every bucket whose window has already ended.
func (l *Limiter) Purge() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, key)
		}
	}
}

// Stop terminates the purge goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Len reports the number of live buckets. Test hook.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.buckets)
}
