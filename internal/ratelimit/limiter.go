// Package ratelimit implements a sliding-window request limiter.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"earthistory/internal/metrics"
)

// DefaultBuffer is added to every computed wait so the oldest request has fully left the window
const DefaultBuffer = 100 * time.Millisecond

// Limiter allows at most max requests in any rolling window.
// It keeps a log of request timestamps; waiting callers hold the lock so
// requests are admitted in arrival order.
type Limiter struct {
	max    int
	window time.Duration
	buffer time.Duration

	mu       sync.Mutex
	requests []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Limiter
type Option func(*Limiter)

// WithClock replaces the time source and the sleep function, used by tests
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

// WithBuffer overrides DefaultBuffer
func WithBuffer(buffer time.Duration) Option {
	return func(l *Limiter) {
		l.buffer = buffer
	}
}

// New creates a limiter for max requests per window
func New(max int, window time.Duration, opts ...Option) *Limiter {
	if max < 1 {
		max = 1
	}
	l := &Limiter{
		max:    max,
		window: window,
		buffer: DefaultBuffer,
		now:    time.Now,
		sleep:  Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Wait blocks until a request may be issued and records it
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		now := l.now()
		l.prune(now)
		if len(l.requests) < l.max {
			l.requests = append(l.requests, now)
			return nil
		}

		oldest := l.requests[0]
		wait := l.window - now.Sub(oldest) + l.buffer
		metrics.RateLimitWaits.Inc()
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Pending returns how many requests are currently inside the window
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.requests)
}

func (l *Limiter) prune(now time.Time) {
	keep := 0
	for _, ts := range l.requests {
		if now.Sub(ts) < l.window {
			l.requests[keep] = ts
			keep++
		}
	}
	l.requests = l.requests[:keep]
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
