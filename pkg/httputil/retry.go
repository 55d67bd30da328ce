package httputil

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryableError marks a failure as transient. [Retry] only repeats an
// operation whose error wraps one.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Transient wraps err in a [RetryableError]. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// TransientStatus reports whether an HTTP status is worth retrying: server
// errors, request timeouts and rate limiting.
func TransientStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}

// Policy controls [Retry].
type Policy struct {
	Attempts int           // total attempts; values below one mean one
	Delay    time.Duration // wait before the first retry, doubled after each
	MaxDelay time.Duration // upper bound for the wait; zero means unbounded

	// OnRetry, if set, is called before each wait with the attempt that
	// failed (starting at 1), the wait and the error.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Retry runs fn until it succeeds, returns an error that is not a
// [RetryableError], or the attempts of p are used up. The last error is
// returned; ctx.Err() is returned if ctx ends during a wait.
func Retry(ctx context.Context, p Policy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	wait := p.Delay

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !isRetryable(err) || attempt == attempts {
			return err
		}
		if p.MaxDelay > 0 {
			wait = min(wait, p.MaxDelay)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
