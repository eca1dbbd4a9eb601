package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is the token bucket in front of the outbound mail transport.
// All workers share one limiter: the mail provider's quota is global,
// not per-worker. Burst equals the rate so no "saved up" burst can
// exceed the configured per-second maximum.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter granting ratePerSec sends per second.
func New(ratePerSec int) *Limiter {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Wait blocks until a token is granted. Called by each worker
// immediately before invoking the mail transport. Returns a non-nil
// error only if ctx is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
