package eventing

import (
	"context"
	"errors"
	"time"
)

// transientError marks a failure as retryable by the channel.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

func (e *transientError) Transient() bool { return true }

// MarkTransient wraps an error so the channel will retry it.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether a failure may be retried. Timeouts and
// explicitly marked errors qualify; everything else is terminal and must be
// surfaced to the caller unchanged.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var marked interface{ Transient() bool }
	if errors.As(err, &marked) {
		return marked.Transient()
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) {
		return timeout.Timeout()
	}
	return false
}

const (
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 100 * time.Millisecond
)

// Retrier executes persistence operations with bounded retries for
// transient failures. Validation and invariant errors pass through on the
// first attempt.
type Retrier struct {
	attempts int
	backoff  time.Duration
	sleep    func(context.Context, time.Duration) error
}

// RetryOption configures a retrier.
type RetryOption func(*Retrier)

// WithAttempts sets the total attempt budget.
func WithAttempts(attempts int) RetryOption {
	return func(r *Retrier) {
		if attempts > 0 {
			r.attempts = attempts
		}
	}
}

// WithBackoff sets the pause between attempts.
func WithBackoff(backoff time.Duration) RetryOption {
	return func(r *Retrier) {
		if backoff >= 0 {
			r.backoff = backoff
		}
	}
}

// NewRetrier constructs a retrier with defaults.
func NewRetrier(opts ...RetryOption) *Retrier {
	r := &Retrier{
		attempts: defaultRetryAttempts,
		backoff:  defaultRetryBackoff,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs op, retrying transient failures up to the attempt budget. The
// last error is returned when the budget is exhausted.
func (r *Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	if r == nil {
		return op(ctx)
	}
	var last error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, r.backoff); err != nil {
				return err
			}
		}
		last = op(ctx)
		if last == nil {
			return nil
		}
		if !IsTransient(last) {
			return last
		}
	}
	return last
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
