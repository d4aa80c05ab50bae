// Package retry runs operations that can fail transiently, doubling the
// wait between attempts.
//
// Only errors marked with [Mark] are retried; anything else is returned
// at once:
//
//	err := retry.WithBackoff(ctx, func() error {
//	    err := client.Ping(ctx).Err()
//	    if isNetwork(err) {
//	        return retry.Mark(err)
//	    }
//	    return err
//	})
package retry

import (
	"context"
	"errors"
	"time"
)

// DefaultAttempts is the number of tries [WithBackoff] makes.
const DefaultAttempts = 3

// DefaultDelay is the first wait of [WithBackoff].
var DefaultDelay = time.Second

// Error marks its cause as worth another attempt.
type Error struct{ Err error }

// Error returns the message of the cause.
func (e *Error) Error() string { return e.Err.Error() }

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// Mark wraps err as retryable. Mark(nil) is nil.
func Mark(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Err: err}
}

// IsRetryable reports whether err carries a [Mark].
func IsRetryable(err error) bool {
	var re *Error
	return errors.As(err, &re)
}

// Do runs fn up to attempts times. The wait starts at delay and doubles
// after each retryable failure. Do returns the last error once attempts
// are exhausted, and ctx.Err() if ctx ends while waiting.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// WithBackoff runs fn with [DefaultAttempts] and [DefaultDelay].
func WithBackoff(ctx context.Context, fn func() error) error {
	return Do(ctx, DefaultAttempts, DefaultDelay, fn)
}
