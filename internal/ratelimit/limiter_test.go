package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(maxAttempts int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	l := New(maxAttempts, window)
	l.now = clock.Now
	return l, clock
}

func TestLimiter_Boundary(t *testing.T) {
	l, clock := newTestLimiter(5, 15*time.Minute)
	defer l.Stop()

	for i := 1; i <= 5; i++ {
		ok, _ := l.Allow("10.0.0.1")
		assert.True(t, ok, "attempt %d should be within budget", i)
	}

	ok, retryAfter := l.Allow("10.0.0.1")
	assert.False(t, ok, "6th attempt in the window must be rejected")
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, 15*time.Minute)

	// Crossing the window boundary starts a fresh window, not "still
	// blocked".
	clock.Advance(15*time.Minute + time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)

	// And the fresh window has its own budget.
	for i := 2; i <= 5; i++ {
		ok, _ = l.Allow("10.0.0.1")
		assert.True(t, ok)
	}
	ok, _ = l.Allow("10.0.0.1")
	assert.False(t, ok)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)
	defer l.Stop()

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.1")
	ok, _ := l.Allow("10.0.0.1")
	assert.False(t, ok)

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "a different client must have its own budget")
}

func TestLimiter_Purge(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)
	defer l.Stop()

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")
	assert.Equal(t, 2, l.Len())

	// Nothing expired yet.
	l.Purge()
	assert.Equal(t, 2, l.Len())

	clock.Advance(2 * time.Minute)
	l.Purge()
	assert.Equal(t, 0, l.Len())
}

func TestLimiter_ConcurrentAllow(t *testing.T) {
	l, _ := newTestLimiter(100, time.Minute)
	defer l.Stop()

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := l.Allow("10.0.0.1")
			allowed <- ok
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	assert.Equal(t, 100, count, "exactly maxAttempts goroutines may pass")
}
