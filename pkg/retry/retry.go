// Package retry runs an operation under an explicit, testable retry policy.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes how an operation is retried.
type Policy struct {
	// MaxAttempts counts the first call. Values below 1 mean a single attempt.
	MaxAttempts int
	// Backoff returns the wait before the given retry (1 for the first retry).
	Backoff func(retry int) time.Duration
	// Retryable decides whether a failure is retried. Nil retries every error.
	Retryable func(error) bool
	// Notify, if set, is called before each wait.
	Notify func(err error, wait time.Duration)
}

// Exponential returns multiplier*2^(retry-1) clamped to [min, max].
func Exponential(multiplier, min, max time.Duration) func(int) time.Duration {
	return func(retry int) time.Duration {
		if retry < 1 {
			retry = 1
		}
		d := multiplier
		for i := 1; i < retry && d < max; i++ {
			d *= 2
		}
		if d < min {
			d = min
		}
		if d > max {
			d = max
		}
		return d
	}
}

// Constant returns a backoff that always waits d.
func Constant(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// Do calls op until it succeeds, fails with a non-retryable error, attempts run out or ctx ends.
// The last error is returned unwrapped.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	bo := backoff.BackOff(backoff.NewExponentialBackOff())
	if p.Backoff != nil {
		bo = &policyBackOff{next: p.Backoff}
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(attempts)),
	}
	if p.Notify != nil {
		opts = append(opts, backoff.WithNotify(p.Notify))
	}

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op(ctx)
		if err != nil && p.Retryable != nil && !p.Retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, opts...)
}

type policyBackOff struct {
	next  func(int) time.Duration
	retry int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	b.retry++
	return b.next(b.retry)
}

func (b *policyBackOff) Reset() { b.retry = 0 }
