package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the limiter sleeps
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func TestLimiterDelaysRequestBeyondWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(5, time.Second, WithClock(clock.Now, clock.Sleep))
	ctx := context.Background()

	first := clock.Now()
	var issued []time.Time
	for i := 0; i < 6; i++ {
		require.NoError(t, l.Wait(ctx))
		issued = append(issued, clock.Now())
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, first, issued[i], "request %d should not wait", i+1)
	}
	assert.GreaterOrEqual(t, issued[5].Sub(first), time.Second)
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, time.Second+DefaultBuffer, clock.sleeps[0])
}

func TestLimiterWaitAccountsForElapsedTime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(2, time.Second, WithClock(clock.Now, clock.Sleep), WithBuffer(0))
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	clock.now = clock.now.Add(300 * time.Millisecond)
	require.NoError(t, l.Wait(ctx))
	clock.now = clock.now.Add(200 * time.Millisecond)
	require.NoError(t, l.Wait(ctx))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 500*time.Millisecond, clock.sleeps[0])
	assert.Equal(t, 2, l.Pending())
}

func TestLimiterPrunesExpiredRequests(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(3, time.Second, WithClock(clock.Now, clock.Sleep))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	clock.now = clock.now.Add(2 * time.Second)
	assert.Equal(t, 0, l.Pending())

	require.NoError(t, l.Wait(ctx))
	assert.Empty(t, clock.sleeps)
}

func TestLimiterIndependentInstances(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	a := New(1, time.Second, WithClock(clock.Now, clock.Sleep))
	b := New(1, time.Second, WithClock(clock.Now, clock.Sleep))
	ctx := context.Background()

	require.NoError(t, a.Wait(ctx))
	require.NoError(t, b.Wait(ctx))
	assert.Empty(t, clock.sleeps)
}

func TestLimiterHonoursCancellation(t *testing.T) {
	l := New(1, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, l.Wait(ctx))
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestLimiterRealClock(t *testing.T) {
	l := New(2, 100*time.Millisecond, WithBuffer(10*time.Millisecond))
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
