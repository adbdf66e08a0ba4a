package bizapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Sentinel errors.
var (
	ErrMissingCredentials = errors.New("api key and secret key are required")
	ErrNoAccessToken      = errors.New("token response did not contain an access token")
	ErrNoResult           = errors.New("no result returned")
	ErrTokenRequest       = errors.New("failed to get access token")
)

// Error codes with special meaning.
const (
	codeDailyLimit       = 17
	codeQPSLimit         = 18
	codeTotalLimit       = 19
	codeServiceLimit     = 4
	codeInvalidToken     = 110
	codeExpiredToken     = 111
	httpServerErrorFloor = 500
)

// APIError is an error reported by the API, either through an HTTP status or
// an error_code in the response body.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("http %d", e.StatusCode)
	}
}

// RateLimited reports whether the API is throttling this client. The batch
// engine doubles its retry delay for such errors.
func (e *APIError) RateLimited() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	switch e.Code {
	case codeServiceLimit, codeDailyLimit, codeQPSLimit, codeTotalLimit:
		return true
	}
	return false
}

// tokenRejected reports whether the access token was refused.
func (e *APIError) tokenRejected() bool {
	return e.Code == codeInvalidToken || e.Code == codeExpiredToken ||
		e.StatusCode == http.StatusUnauthorized
}

// IsTransient reports whether err is worth retrying: throttling, a server
// error, a network failure, or an attempt that hit its deadline.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RateLimited() || apiErr.StatusCode >= httpServerErrorFloor
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
