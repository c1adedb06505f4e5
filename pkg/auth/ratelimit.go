package auth

import (
	"context"
	"sync"
	"time"
)

// FailureLimiter throttles clients that keep presenting bad credentials.
// Keys identify a client, typically its remote address.
type FailureLimiter interface {
	// Allow returns ErrTooManyRequests once key exhausted its failure budget.
	Allow(ctx context.Context, key string) error

	// Fail records a failed attempt for key.
	Fail(ctx context.Context, key string)

	// Reset forgets the failures recorded for key.
	Reset(ctx context.Context, key string)
}

// minSweepSize is the counter count at which Fail first sweeps expired
// windows. Later sweeps run when the map doubles past its post-sweep size.
const minSweepSize = 1024

// InProcessLimiter is a fixed-window failure counter kept in memory. A
// window opens at a client's first failure and lasts one minute; expired
// windows are dropped when the client returns or by the sweep in Fail.
type InProcessLimiter struct {
	maxFailures int
	window      time.Duration
	now         func() time.Time

	mu        sync.Mutex
	counters  map[string]*counter
	nextSweep int
}

type counter struct {
	count    int
	windowAt time.Time
}

// NewInProcessLimiter creates a limiter allowing maxFailures failed
// attempts per key each minute. A maxFailures <= 0 disables limiting.
func NewInProcessLimiter(maxFailures int) *InProcessLimiter {
	return &InProcessLimiter{
		maxFailures: maxFailures,
		window:      time.Minute,
		now:         time.Now,
		counters:    make(map[string]*counter),
		nextSweep:   minSweepSize,
	}
}

// Allow checks whether key may attempt authentication.
func (l *InProcessLimiter) Allow(_ context.Context, key string) error {
	if l.maxFailures <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	if !ok {
		return nil
	}
	if l.now().Sub(c.windowAt) >= l.window {
		delete(l.counters, key)
		return nil
	}
	if c.count >= l.maxFailures {
		return ErrTooManyRequests
	}
	return nil
}

// Fail records a failed attempt.
func (l *InProcessLimiter) Fail(_ context.Context, key string) {
	if l.maxFailures <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowAt) >= l.window {
		l.counters[key] = &counter{count: 1, windowAt: now}
		if len(l.counters) >= l.nextSweep {
			l.sweep(now)
		}
		return
	}
	c.count++
}

// sweep drops expired windows. Callers hold l.mu.
func (l *InProcessLimiter) sweep(now time.Time) {
	for key, c := range l.counters {
		if now.Sub(c.windowAt) >= l.window {
			delete(l.counters, key)
		}
	}
	l.nextSweep = max(2*len(l.counters), minSweepSize)
}

// Len returns the number of clients with an open failure window.
func (l *InProcessLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counters)
}

// Reset clears the failures recorded for key.
func (l *InProcessLimiter) Reset(_ context.Context, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counters, key)
}
