package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func TestFixedWindow_Allow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	limiter := NewFixedWindow(NewMemoryStore(), time.Minute, 10).WithClock(clock.Now)

	for i := 0; i < 10; i++ {
		clock.now = clock.now.Add(time.Second)
		result, err := limiter.Allow(ctx, "fid-1")
		require.NoError(t, err)
		require.True(t, result.Allowed, "request %d", i+1)
		require.Equal(t, 9-i, result.Remaining)
	}

	result, err := limiter.Allow(ctx, "fid-1")
	require.NoError(t, err)
	require.False(t, result.Allowed)

	// Another identity has its own counter.
	result, err = limiter.Allow(ctx, "fid-2")
	require.NoError(t, err)
	require.True(t, result.Allowed)

	clock.now = clock.now.Add(61 * time.Second)
	result, err = limiter.Allow(ctx, "fid-1")
	require.NoError(t, err)
	require.True(t, result.Allowed)
}

func TestFixedWindow_StartsAtFirstRequest(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 50, 0, time.UTC)}
	limiter := NewFixedWindow(NewMemoryStore(), time.Minute, 10).WithClock(clock.Now)

	for i := 0; i < 10; i++ {
		result, err := limiter.Allow(ctx, "fid-1")
		require.NoError(t, err)
		require.True(t, result.Allowed)
		require.Equal(t, clock.now.Add(time.Minute), result.ResetAt)
	}

	// Crossing a minute boundary does not open a new window.
	clock.now = clock.now.Add(15 * time.Second)
	result, err := limiter.Allow(ctx, "fid-1")
	require.NoError(t, err)
	require.False(t, result.Allowed)

	clock.now = clock.now.Add(45 * time.Second)
	result, err = limiter.Allow(ctx, "fid-1")
	require.NoError(t, err)
	require.True(t, result.Allowed)
	require.Equal(t, 9, result.Remaining)
}

type mapIncrClient struct {
	counts map[string]int64
	ttls   map[string]time.Duration
}

func (c *mapIncrClient) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	c.counts[key]++
	if c.counts[key] == 1 {
		c.ttls[key] = ttl
	}
	return c.counts[key], 20 * time.Second, nil
}

func TestRedisStore_Incr(t *testing.T) {
	client := &mapIncrClient{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
	now := time.Unix(1700000040, 0)
	limiter := NewFixedWindow(NewRedisStore(client, "rl"), time.Minute, 2).
		WithClock(func() time.Time { return now })

	for i := 0; i < 2; i++ {
		r, err := limiter.Allow(context.Background(), "7")
		require.NoError(t, err)
		require.True(t, r.Allowed)
	}

	r, err := limiter.Allow(context.Background(), "7")
	require.NoError(t, err)
	require.False(t, r.Allowed)
	require.Equal(t, now.Add(20*time.Second), r.ResetAt)

	require.Equal(t, int64(3), client.counts["rl:7"])
	require.Equal(t, time.Minute, client.ttls["rl:7"])
}

func TestMemoryStore_Prune(t *testing.T) {
	store := NewMemoryStore()
	start := time.Unix(0, 0)
	_, _, err := store.Incr(context.Background(), "a", start, time.Minute)
	require.NoError(t, err)

	store.Prune(start.Add(30*time.Second), time.Minute)
	require.Equal(t, 1, store.counters.Size())

	store.Prune(start.Add(time.Minute), time.Minute)
	require.Equal(t, 0, store.counters.Size())
}

func TestMemoryStore_PrunesOnIncr(t *testing.T) {
	store := NewMemoryStore()
	start := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		_, _, err := store.Incr(context.Background(), fmt.Sprint(i), start, time.Minute)
		require.NoError(t, err)
	}
	require.Equal(t, 5, store.counters.Size())

	count, _, err := store.Incr(context.Background(), "late", start.Add(2*time.Minute), time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, 1, store.counters.Size())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	now := time.Unix(0, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Incr(context.Background(), "k", now, time.Minute)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	count, _, err := store.Incr(context.Background(), "k", now, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 51, count)
}
