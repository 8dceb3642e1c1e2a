package inat

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Waiter suspends execution between successive API requests. The
// fetcher calls Wait after every page request to honor the spacing the
// API terms of use require. Implementations must return early with the
// context error when the context is cancelled.
type Waiter interface {
	Wait(ctx context.Context) error
}

// delayWaiter blocks for a fixed duration per call.
type delayWaiter struct {
	delay time.Duration
}

// NewDelayWaiter returns a Waiter that suspends for the given duration,
// interruptible by context cancellation.
func NewDelayWaiter(delay time.Duration) Waiter {
	return &delayWaiter{delay: delay}
}

func (w *delayWaiter) Wait(ctx context.Context) error {
	if w.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(w.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// limiterWaiter draws from a shared rate limiter.
type limiterWaiter struct {
	limiter *rate.Limiter
}

// NewLimiterWaiter wraps a rate.Limiter so that concurrent fetches of
// multiple taxa share one process-wide request budget instead of each
// keeping its own delay schedule.
func NewLimiterWaiter(limiter *rate.Limiter) Waiter {
	return &limiterWaiter{limiter: limiter}
}

func (w *limiterWaiter) Wait(ctx context.Context) error {
	return w.limiter.Wait(ctx)
}
