// Package retry wraps fetch attempts with a bounded, linearly increasing backoff.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultMaxAttempts is the number of attempts made before giving up
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is multiplied by the attempt number to get the wait before the next attempt
	DefaultBaseDelay = 2 * time.Second
)

// Policy describes how many times to attempt an operation and how long to wait in between
type Policy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
}

// DefaultPolicy returns the policy used for source fetches
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	return p
}

// ExhaustedError is returned once every attempt has failed. It unwraps to the last error.
type ExhaustedError struct {
	Attempts uint
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// LinearBackOff waits base * n before attempt n+1
type LinearBackOff struct {
	base    time.Duration
	attempt int64
}

// NewLinearBackOff creates a linear backoff with the given base delay
func NewLinearBackOff(base time.Duration) *LinearBackOff {
	return &LinearBackOff{base: base}
}

// NextBackOff implements backoff.BackOff
func (b *LinearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.base
}

// Reset implements backoff.BackOff
func (b *LinearBackOff) Reset() {
	b.attempt = 0
}

// Option configures a single Do call
type Option func(*options)

type options struct {
	notify func(attempt uint, err error, wait time.Duration)
}

// WithNotify registers a callback invoked after each failed attempt that will be retried
func WithNotify(fn func(attempt uint, err error, wait time.Duration)) Option {
	return func(o *options) {
		o.notify = fn
	}
}

// Do runs fn until it succeeds or the policy's attempts run out.
// After exhaustion the last error is returned wrapped in an *ExhaustedError.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	p = p.normalized()
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var attempts uint
	operation := func() (T, error) {
		attempts++
		return fn(ctx)
	}

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(NewLinearBackOff(p.BaseDelay)),
		backoff.WithMaxTries(p.MaxAttempts),
	}
	if o.notify != nil {
		retryOpts = append(retryOpts, backoff.WithNotify(func(err error, wait time.Duration) {
			o.notify(attempts, err, wait)
		}))
	}

	res, err := backoff.Retry(ctx, operation, retryOpts...)
	if err == nil {
		return res, nil
	}

	if attempts >= p.MaxAttempts {
		return res, &ExhaustedError{Attempts: attempts, Err: err}
	}
	return res, err
}
