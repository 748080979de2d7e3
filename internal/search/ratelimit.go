package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrDailyLimitReached is returned when the daily search quota has been
// exhausted.
var ErrDailyLimitReached = errors.New("daily search limit reached")

// Limiter controls search API call rate and daily usage. A token bucket
// paces individual calls; a rolling 24-hour window tracks the daily quota.
type Limiter struct {
	bucket   *rate.Limiter
	used     atomic.Int64
	maxDaily int64

	mu      sync.Mutex
	resetAt time.Time
	nowFunc func() time.Time
}

// LimiterOption configures the Limiter.
type LimiterOption func(*Limiter)

// WithLimiterNowFunc overrides the time function for testing.
func WithLimiterNowFunc(f func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.nowFunc = f
	}
}

// NewLimiter creates a limiter with the given per-second rate, burst size,
// and daily quota. The 24-hour window starts at construction and rolls
// forward whenever it expires.
func NewLimiter(perSecond float64, burst int, maxDaily int64, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		bucket:   rate.NewLimiter(rate.Limit(perSecond), burst),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.resetAt = l.nowFunc().Add(24 * time.Hour)
	return l
}

// Wait blocks until the limiter admits the call or the context is canceled.
// Returns ErrDailyLimitReached once the daily quota is spent.
func (l *Limiter) Wait(ctx context.Context) error {
	l.rollWindow()

	if l.used.Load() >= l.maxDaily {
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, l.used.Load(), l.maxDaily)
	}

	if err := l.bucket.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	l.used.Add(1)
	return nil
}

// Remaining returns the calls left in the current 24-hour window.
func (l *Limiter) Remaining() int64 {
	remaining := l.maxDaily - l.used.Load()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (l *Limiter) rollWindow() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	if now.After(l.resetAt) {
		l.used.Store(0)
		l.resetAt = now.Add(24 * time.Hour)
	}
}
