package batch

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy controls Retry.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt. Zero means a
	// single attempt.
	MaxRetries int

	// InitialDelay is the base delay between attempts.
	InitialDelay time.Duration

	// IsRateLimited classifies errors. Defaults to IsRateLimitError.
	IsRateLimited func(error) bool

	// OnRetry is called before each wait with the failed attempt number
	// (1-based), its error, the delay about to be waited, and whether the
	// error was classified as a rate-limit error.
	OnRetry func(attempt int, err error, delay time.Duration, rateLimited bool)
}

// DefaultRetryPolicy returns three retries starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialRetryDelay,
	}
}

// Retry runs task until it succeeds or the policy's retries are spent.
//
// After a failure the current delay doubles if the error is a rate-limit
// error and is kept otherwise; Retry then waits that delay and uses it as the
// base for the next failure. A rate-limited task therefore waits 2d, 4d, 8d
// while a generically failing one waits d, d, d.
//
// When every attempt fails the result is an *ExhaustedRetriesError wrapping the
// last error. Cancellation of ctx during a wait returns an error wrapping
// ErrCancelled.
func Retry[R any](ctx context.Context, policy RetryPolicy, task func(context.Context) (R, error)) (R, error) {
	var zero R

	isRateLimited := policy.IsRateLimited
	if isRateLimited == nil {
		isRateLimited = IsRateLimitError
	}
	maxRetries := max(policy.MaxRetries, 0)
	delay := policy.InitialDelay

	for attempt := 1; ; attempt++ {
		result, err := task(ctx)
		if err == nil {
			return result, nil
		}

		if attempt > maxRetries {
			return zero, &ExhaustedRetriesError{Attempts: attempt, Err: err}
		}

		rateLimited := isRateLimited(err)
		if rateLimited {
			delay *= 2
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err, delay, rateLimited)
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
		}
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
	case <-timer.C:
		return nil
	}
}
