package trajectory

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy decides how long to pause before a fetch attempt. Attempt 0 is the
// first try and is never delayed by the built-in policies. Policies never
// limit the number of attempts; the fetcher owns that decision.
type Policy interface {
	Wait(ctx context.Context, attempt int) error
}

// PolicyFunc is a caller-supplied backoff callback. It is invoked before every
// attempt, including attempt 0, and the returned duration is slept unless it
// is zero or negative.
type PolicyFunc func(attempt int) time.Duration

func (f PolicyFunc) Wait(ctx context.Context, attempt int) error {
	return sleep(ctx, f(attempt))
}

type noWait struct{}

func (noWait) Wait(ctx context.Context, _ int) error {
	return ctx.Err()
}

// NoWait busy-polls: it only checks for cancellation.
func NoWait() Policy {
	return noWait{}
}

// FixedDelay waits d before every retry.
func FixedDelay(d time.Duration) Policy {
	return PolicyFunc(func(attempt int) time.Duration {
		if attempt <= 0 {
			return 0
		}
		return d
	})
}

// Linear waits attempt*step before each retry, capped at limit when limit > 0.
func Linear(step, limit time.Duration) Policy {
	return PolicyFunc(func(attempt int) time.Duration {
		if attempt <= 0 {
			return 0
		}
		d := time.Duration(attempt) * step
		if limit > 0 && d > limit {
			d = limit
		}
		return d
	})
}

// BackoffPolicy draws retry delays from a backoff.BackOff schedule. The
// schedule is reset at the start of each fetch. When the schedule reports
// backoff.Stop the last interval is reused, so the policy still never gives up.
//
// A BackoffPolicy is stateful and must not be shared between concurrent
// fetches.
type BackoffPolicy struct {
	b    backoff.BackOff
	last time.Duration
}

// Backoff wraps a backoff.BackOff schedule.
func Backoff(b backoff.BackOff) *BackoffPolicy {
	return &BackoffPolicy{b: b}
}

// ExponentialBackoff grows the delay from initial up to limit and never stops.
// A limit of zero keeps the library's default cap.
func ExponentialBackoff(initial, limit time.Duration) *BackoffPolicy {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = initial
	if limit > 0 {
		eb.MaxInterval = limit
	}
	eb.MaxElapsedTime = 0
	return Backoff(eb)
}

func (p *BackoffPolicy) Wait(ctx context.Context, attempt int) error {
	if attempt <= 0 {
		p.b.Reset()
		p.last = 0
		return ctx.Err()
	}

	d := p.b.NextBackOff()
	if d == backoff.Stop {
		d = p.last
	}
	p.last = d

	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
