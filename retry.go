package authstate

import (
	"context"
	"time"
)

const (
	// DefaultRetryAttempts bounds retried operations unless overridden
	DefaultRetryAttempts = 3
	// DefaultRetryBaseDelay seeds the exponential backoff schedule
	DefaultRetryBaseDelay = 500 * time.Millisecond
)

// RetryPolicy describes a bounded retry loop with exponential backoff.
// The zero value is usable and falls back to the package defaults.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first
	MaxAttempts int
	// BaseDelay is doubled after every failed attempt: the wait after
	// attempt n is BaseDelay << n
	BaseDelay time.Duration
	// MaxDelay caps a single backoff wait when > 0
	MaxDelay time.Duration
	// Terminal short-circuits the loop: errors it reports true for are
	// returned immediately without further attempts
	Terminal func(err error) bool
	// Sleep waits between attempts; tests inject a fake. Defaults to a
	// context-aware timer wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return DefaultRetryAttempts
}

func (p RetryPolicy) baseDelay() time.Duration {
	if p.BaseDelay > 0 {
		return p.BaseDelay
	}
	return DefaultRetryBaseDelay
}

// Delay returns the backoff wait after the given 1-indexed failed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.baseDelay() << attempt
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

// Retry runs op under the policy until it succeeds, fails terminally, runs
// out of attempts, or ctx is canceled. The last error is returned as-is so
// callers can classify it.
func Retry[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	var lastErr error

	total := p.attempts()
	for attempt := 1; attempt <= total; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.Terminal != nil && p.Terminal(err) {
			return zero, err
		}

		if attempt == total {
			break
		}

		if err := p.sleep(ctx, p.Delay(attempt)); err != nil {
			return zero, err
		}
	}

	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
