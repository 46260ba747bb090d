package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// breaker tracks consecutive primary-store errors:
// - open after failureThreshold consecutive failures, routing checks to the
//   in-memory fallback,
// - close again after successThreshold consecutive successful primary checks.
type breaker struct {
	mu               sync.Mutex
	open             bool
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
}

func newBreaker() *breaker {
	return &breaker{
		failureThreshold: 5,
		successThreshold: 3,
	}
}

func (b *breaker) isOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// recordFailure reports whether the circuit is now open.
func (b *breaker) recordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	b.successCount = 0
	if !b.open && b.failureCount >= b.failureThreshold {
		b.open = true
	}
	return b.open
}

// recordSuccess reports whether the circuit closed on this success.
func (b *breaker) recordSuccess() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		b.failureCount = 0
		return false
	}
	b.successCount++
	if b.successCount >= b.successThreshold {
		b.open = false
		b.failureCount = 0
		b.successCount = 0
		return true
	}
	return false
}

// FallbackStore wraps a primary store, usually Redis, with an in-memory
// fallback so check-ins keep a per-process rate limit during store outages.
// While the circuit is open only every probeInterval-th request touches the
// primary to test recovery.
type FallbackStore struct {
	primary  Store
	fallback Store
	breaker  *breaker
	logger   *slog.Logger

	mu        sync.Mutex
	lastProbe time.Time
}

const probeInterval = 5 * time.Second

func NewFallbackStore(primary, fallback Store, logger *slog.Logger) *FallbackStore {
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		breaker:  newBreaker(),
		logger:   logger,
	}
}

func (s *FallbackStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if s.breaker.isOpen() && !s.shouldProbe() {
		return s.fallback.Allow(ctx, key, limit, window)
	}

	result, err := s.primary.Allow(ctx, key, limit, window)
	if err != nil {
		if opened := s.breaker.recordFailure(); opened {
			s.logger.WarnContext(ctx, "rate limit primary store unavailable, using in-memory fallback",
				"error", err,
			)
		}
		return s.fallback.Allow(ctx, key, limit, window)
	}

	if closed := s.breaker.recordSuccess(); closed {
		s.logger.InfoContext(ctx, "rate limit primary store recovered")
	}
	return result, nil
}

func (s *FallbackStore) shouldProbe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastProbe) < probeInterval {
		return false
	}
	s.lastProbe = time.Now()
	return true
}
