package cache

import (
	"context"
	"errors"
	"time"
)

// RetryAttempts bounds [RetryWithBackoff].
const RetryAttempts = 3

// RetryableError marks a transient failure, such as a dropped Neo4j
// connection, that is worth another attempt.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether any error in err's chain was marked by
// [Retryable].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff calls fn until it succeeds, returns an unmarked error or
// RetryAttempts calls have been made. The wait starts at base and doubles.
// Cancelling ctx during a wait returns ctx.Err().
func RetryWithBackoff(ctx context.Context, base time.Duration, fn func() error) error {
	wait := base
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) || attempt == RetryAttempts {
			return err
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}
