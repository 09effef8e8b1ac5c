// Package retry runs external calls with capped exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"ccms/internal/domain"
)

// Policy is the attempt count and the first delay; each later delay doubles.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultPolicy is three attempts starting at one second (1s, 2s).
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: time.Second}
}

// FromSettings builds a policy from a chain retry block, falling back to defaults.
func FromSettings(s domain.RetrySettings) Policy {
	p := DefaultPolicy()
	if s.Attempts > 0 {
		p.Attempts = s.Attempts
	}
	if s.BaseMS > 0 {
		p.BaseDelay = s.BaseDelay()
	}
	return p
}

// Notify is called after a failed attempt with the delay before the next one.
type Notify func(attempt int, err error, next time.Duration)

// Do runs op until it succeeds, attempts run out or ctx is done.
// It returns the number of attempts made alongside the result.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), notify Notify) (T, int, error) {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.BaseDelay << p.Attempts
	b.Reset()

	attempt := 0
	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.Attempts)),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, next time.Duration) {
			notify(attempt, err, next)
		}))
	}

	result, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		return op(ctx)
	}, opts...)
	return result, attempt, err
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
