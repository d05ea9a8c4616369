// Package ratelimit enforces minimum spacing between consecutive calls under
// a shared key. It is the only mutable state shared across sessions.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter spaces calls per key. Construct once at process start and
// inject; it must never live in package-level state.
type KeyedLimiter struct {
	mu       sync.Mutex
	spacing  time.Duration
	limiters map[string]*rate.Limiter
}

// New creates a limiter that allows at most one call per minSpacing under
// each key.
func New(minSpacing time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		spacing:  minSpacing,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the next call under key is allowed or ctx is done.
// Waiters are granted minimum spacing, not FIFO order.
func (l *KeyedLimiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		// Burst 1: the first call passes immediately, every later call waits
		// out the spacing interval.
		lim = rate.NewLimiter(rate.Every(l.spacing), 1)
		l.limiters[key] = lim
	}
	l.mu.Unlock()

	return lim.Wait(ctx)
}
