package search

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiter throttles outgoing search requests and backs off after the
// provider reports rate limiting.
type limiter struct {
	mu      sync.Mutex
	bucket  *rate.Limiter
	retryAt time.Time
}

func newLimiter(perSecond float64) *limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &limiter{bucket: rate.NewLimiter(limit, 1)}
}

// Wait blocks until a request may be sent.
func (l *limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}
	return l.bucket.Wait(ctx)
}

// Backoff delays the next request by d, 30 seconds when d is not positive.
func (l *limiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = 30 * time.Second
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.retryAt = time.Now().Add(d)
}
