// Package ratelimit implements a fixed-window per-user call limiter.
// Window identity is wall-clock time truncated to the window length, so
// bursts across a window boundary are accepted; this is a known limitation
// of the fixed-window approach.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Defaults match the gateway's accounting granularity: 60 calls per
// one-minute window per user.
const (
	DefaultCapacity = 60
	DefaultWindow   = time.Minute
)

// Store is a pluggable counter store. Counter entries expire after the
// window length elapses; no manual cleanup is required by callers.
type Store interface {
	// Get returns the current value of a counter, 0 if absent or expired.
	Get(ctx context.Context, key string) (int64, error)

	// Incr increments a counter, setting its expiry to ttl when the
	// counter is created. Returns the new value.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Limiter enforces the per-user fixed-window limit.
type Limiter struct {
	store    Store
	capacity int64
	window   time.Duration

	now func() time.Time
}

// New creates a Limiter over the given store. Non-positive capacity or
// window fall back to the defaults.
func New(store Store, capacity int, window time.Duration) *Limiter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		store:    store,
		capacity: int64(capacity),
		window:   window,
		now:      time.Now,
	}
}

// CheckAndIncrement admits or rejects one call for a user. A call at
// capacity is rejected without incrementing the counter.
func (l *Limiter) CheckAndIncrement(ctx context.Context, userID int64) (bool, error) {
	key := l.windowKey(userID)

	calls, err := l.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("rate limit read failed: %w", err)
	}
	if calls >= l.capacity {
		return false, nil
	}

	if _, err := l.store.Incr(ctx, key, l.window); err != nil {
		return false, fmt.Errorf("rate limit increment failed: %w", err)
	}
	return true, nil
}

// windowKey derives the counter key from the user and the current
// wall-clock bucket.
func (l *Limiter) windowKey(userID int64) string {
	bucket := l.now().UTC().Truncate(l.window)
	return fmt.Sprintf("api_calls:%d:%d", userID, bucket.Unix())
}
