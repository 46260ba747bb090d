package ratelimit

import (
	"context"
	"time"
)

// Result reports one fixed-window admission check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Store counts requests per key in fixed windows. Implementations must be
// safe for concurrent use.
type Store interface {
	// Allow increments the counter for key and reports whether the request
	// fits within limit for the current window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}
