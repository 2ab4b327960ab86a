package driver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingAPIKey   = errors.New("missing api key")
	ErrEmptyPrompt     = errors.New("prompt is empty")
)

// SDKError is the base error type for all driver errors.
type SDKError struct {
	Message string
	Cause   error
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SDKError) Unwrap() error {
	return e.Cause
}

// ConfigurationError reports an unusable driver configuration: an unknown
// provider or a missing credential.
type ConfigurationError struct{ SDKError }

// InvalidInputError reports a request that cannot be sent, such as an empty prompt.
type InvalidInputError struct{ SDKError }

// NetworkError reports a transport failure before the backend answered.
type NetworkError struct{ SDKError }

// BackendError represents a non-success answer from a model provider.
type BackendError struct {
	SDKError
	Provider   string
	StatusCode int
	ErrorCode  string
	Retryable  bool
	// RetryAfter is the wait the backend asked for, zero when it sent none.
	RetryAfter time.Duration
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("[%s] %s (status=%d, retryable=%v)", e.Provider, e.Message, e.StatusCode, e.Retryable)
}

// Concrete backend error types.

type AuthenticationError struct{ BackendError }
type AccessDeniedError struct{ BackendError }
type NotFoundError struct{ BackendError }
type InvalidRequestError struct{ BackendError }
type RateLimitError struct{ BackendError }
type ServerError struct{ BackendError }

func newConfigurationError(cause error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{SDKError: SDKError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

func newInvalidInputError(provider string) *InvalidInputError {
	return &InvalidInputError{SDKError: SDKError{Message: provider + ": invalid input", Cause: ErrEmptyPrompt}}
}

// ErrorFromStatusCode maps an HTTP status code to the appropriate error type.
func ErrorFromStatusCode(statusCode int, message, provider, errorCode string) error {
	be := BackendError{
		SDKError:   SDKError{Message: message},
		Provider:   provider,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}

	switch statusCode {
	case 400, 413, 422:
		return &InvalidRequestError{BackendError: be}
	case 401:
		return &AuthenticationError{BackendError: be}
	case 403:
		return &AccessDeniedError{BackendError: be}
	case 404:
		return &NotFoundError{BackendError: be}
	case 408, 409:
		be.Retryable = true
		return &be
	case 429:
		be.Retryable = true
		return &RateLimitError{BackendError: be}
	case 500, 502, 503, 504, 529:
		be.Retryable = true
		return &ServerError{BackendError: be}
	default:
		be.Retryable = statusCode >= 500
		return &be
	}
}

func (e *BackendError) retryable() bool { return e.Retryable }

func (e *BackendError) retryAfter() time.Duration { return e.RetryAfter }

func (e *BackendError) setRetryAfter(d time.Duration) { e.RetryAfter = d }

// RetryAfter returns the backoff hint carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var h interface{ retryAfter() time.Duration }
	if errors.As(err, &h) && h.retryAfter() > 0 {
		return h.retryAfter(), true
	}
	return 0, false
}

func (e *NetworkError) retryable() bool { return true }

// IsRetryable returns true if the error is safe to retry. Unclassified errors
// default to retryable; configuration, input and cancellation errors never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r interface{ retryable() bool }
	if errors.As(err, &r) {
		return r.retryable()
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return false
	}
	var ie *InvalidInputError
	if errors.As(err, &ie) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
