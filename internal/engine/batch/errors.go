package batch

import (
	"errors"
	"fmt"
	"strings"
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors returned by the batch engine. Compare with errors.Is.
var (
	// ErrInvalidConfig is wrapped by every ConfigurationError.
	ErrInvalidConfig = constError("invalid batch configuration")

	// ErrNilWorker is returned when ProcessBatch receives a nil worker.
	ErrNilWorker = constError("batch worker cannot be nil")

	// ErrCancelled is wrapped by errors caused by context cancellation. The
	// context cause is wrapped alongside it.
	ErrCancelled = constError("batch processing cancelled")
)

// ConfigurationError reports an invalid Config field.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s=%v %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfig }

// ExhaustedRetriesError is returned by Retry once every attempt has failed.
// Unwrap yields the last underlying error unchanged.
type ExhaustedRetriesError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("giving up after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ExhaustedRetriesError) Unwrap() error { return e.Err }

// ItemError identifies the item whose failure stopped ProcessBatch.
type ItemError struct {
	Index int
	Item  any
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%v): %v", e.Index, e.Item, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// RateLimitError marks an error as a throttling response from a remote endpoint.
// Retry doubles its delay after a rate-limit error.
type RateLimitError struct {
	Err error
}

// NewRateLimitError wraps err as a rate-limit error.
func NewRateLimitError(err error) *RateLimitError {
	return &RateLimitError{Err: err}
}

func (e *RateLimitError) Error() string {
	if e.Err == nil {
		return "rate limited"
	}
	return "rate limited: " + e.Err.Error()
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// RateLimited implements the rateLimited interface.
func (e *RateLimitError) RateLimited() bool { return true }

// rateLimited is implemented by errors that know whether they signal throttling.
type rateLimited interface {
	RateLimited() bool
}

// rateLimitPhrases are message fragments returned by throttling endpoints.
// Matching is case-insensitive.
var rateLimitPhrases = []string{
	"请求过快",
	"qps request limit reached",
	"request limit reached",
	"too many requests",
}

// IsRateLimitError reports whether err signals that the remote side is
// throttling requests. Any error in the chain implementing RateLimited() bool
// decides; otherwise the message is matched against known throttling phrases.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var rl rateLimited
	if errors.As(err, &rl) {
		return rl.RateLimited()
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
