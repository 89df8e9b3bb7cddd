package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/discoverly/visibility-service/internal/model"
)

// Error taxonomy for provider calls. The retry layer keys off these types:
// auth failures are permanent, HTTP 429/5xx and network errors are
// transient, parse failures and poll-budget exhaustion are terminal for
// the one call they occurred on. None of them ever abort a run — the
// Router converts whatever survives retries into a failed ProviderResponse.

// AuthError is a 401/403 from a provider. Retrying cannot help, so it is
// surfaced immediately.
type AuthError struct {
	Provider model.Provider
	Status   int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication rejected (HTTP %d)", e.Provider, e.Status)
}

// HTTPError is a non-2xx status other than an auth failure.
type HTTPError struct {
	Provider model.Provider
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Body)
}

// ParseError is a malformed or empty provider payload.
type ParseError struct {
	Provider model.Provider
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parsing response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TimeoutError means a poll-based provider exhausted its attempt budget.
type TimeoutError struct {
	Provider model.Provider
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: job did not finish within %d polls", e.Provider, e.Attempts)
}

// statusError maps an HTTP status to the right error type.
func statusError(provider model.Provider, status int, body string) error {
	if status == 401 || status == 403 {
		return &AuthError{Provider: provider, Status: status}
	}
	return &HTTPError{Provider: provider, Status: status, Body: body}
}

// retryable reports whether an error is worth another attempt.
// Auth and other 4xx failures are permanent; 429 and 5xx are transient,
// as are plain network errors. Context cancellation always stops retries.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == 429 || httpErr.Status >= 500
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return false
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return false
	}

	// SDK-level errors don't always unwrap to our types; treat genuine
	// network failures as transient and everything else as permanent.
	var netErr net.Error
	return errors.As(err, &netErr)
}
