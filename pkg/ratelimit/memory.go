package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v2"
)

type windowCounter struct {
	mu      sync.Mutex
	start   time.Time
	count   int
	dropped bool
}

type memoryStore struct {
	counters *xsync.MapOf[string, *windowCounter]

	mu        sync.Mutex
	lastPrune time.Time
}

// NewMemoryStore keeps counters in process. It is only correct for single
// instance deployments. Counters of ended windows are pruned once per window.
func NewMemoryStore() *memoryStore {
	return &memoryStore{counters: xsync.NewMapOf[*windowCounter]()}
}

func (s *memoryStore) Incr(_ context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	s.pruneIfDue(now, window)

	for {
		c, _ := s.counters.LoadOrCompute(key, func() *windowCounter {
			return &windowCounter{start: now}
		})

		c.mu.Lock()
		if c.dropped {
			// Pruned between the load and the lock, a fresh counter replaces it.
			c.mu.Unlock()
			continue
		}

		if !now.Before(c.start.Add(window)) {
			c.start = now
			c.count = 0
		}

		c.count++
		count, end := c.count, c.start.Add(window)
		c.mu.Unlock()

		return count, end, nil
	}
}

func (s *memoryStore) pruneIfDue(now time.Time, window time.Duration) {
	s.mu.Lock()
	due := !now.Before(s.lastPrune.Add(window))
	if due {
		s.lastPrune = now
	}
	s.mu.Unlock()

	if due {
		s.Prune(now, window)
	}
}

// Prune drops counters of windows that ended before now.
func (s *memoryStore) Prune(now time.Time, window time.Duration) {
	s.counters.Range(func(key string, c *windowCounter) bool {
		c.mu.Lock()
		if !now.Before(c.start.Add(window)) {
			c.dropped = true
			s.counters.Delete(key)
		}
		c.mu.Unlock()
		return true
	})
}
