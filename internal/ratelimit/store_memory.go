package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with in-process fixed windows. Suitable for a
// single instance; distributed deployments use the Redis store.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, dur time.Duration) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= dur {
		w = &window{start: now}
		s.windows[key] = w
	}

	w.count++
	if w.count > limit {
		return &Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: w.start.Add(dur).Sub(now),
		}, nil
	}
	return &Result{Allowed: true, Remaining: limit - w.count}, nil
}
