package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Incrementer is the part of xredis.Client the store depends on.
type Incrementer interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error)
}

type redisStore struct {
	client Incrementer
	prefix string
}

// NewRedisStore shares counters between instances. The key of an identity is
// created by its first hit and expires with the window.
func NewRedisStore(client Incrementer, prefix string) *redisStore {
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) Incr(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	count, ttl, err := s.client.IncrWithTTL(ctx, fmt.Sprintf("%s:%s", s.prefix, key), window)
	if err != nil {
		return 0, time.Time{}, err
	}

	// PTTL is negative when the key has no expiration.
	if ttl <= 0 || ttl > window {
		ttl = window
	}

	return int(count), now.Add(ttl), nil
}
