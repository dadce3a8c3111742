// Package ratelimit implements a fixed window request counter keyed by the
// requester identity. The window of an identity starts at its first request.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultWindow = time.Minute
	DefaultLimit  = 10
)

// Store counts hits of a key at now. A window opens at the first hit of a key
// and the counter resets once it ended. Incr returns the count and the end of
// the current window.
type Store interface {
	Incr(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error)
}

type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type FixedWindow struct {
	store  Store
	window time.Duration
	limit  int
	now    func() time.Time
}

func NewFixedWindow(store Store, window time.Duration, limit int) *FixedWindow {
	if window <= 0 {
		window = DefaultWindow
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	return &FixedWindow{store: store, window: window, limit: limit, now: time.Now}
}

// WithClock replaces the time source, mostly for tests.
func (l *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	l.now = now
	return l
}

// Allow records a request of key and reports whether it is within the limit.
func (l *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	count, resetAt, err := l.store.Incr(ctx, key, l.now(), l.window)
	if err != nil {
		return Result{}, err
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
