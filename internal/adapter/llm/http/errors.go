package http

import "fmt"

// ErrorType represents the category of transport error that occurred.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeModelNotFound:
		return "model not found"
	default:
		return "unknown error"
	}
}

// Error represents an HTTP client error with additional context.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Provider   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// MapStatusCode maps an HTTP status code from an LLM backend to a typed
// error. The message should be the backend's own description when one was
// parseable from the response body.
func MapStatusCode(provider string, statusCode int, message string) *Error {
	err := &Error{
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
	}

	switch statusCode {
	case 401, 403:
		err.Type = ErrTypeAuthentication
	case 404:
		err.Type = ErrTypeModelNotFound
	case 429:
		err.Type = ErrTypeRateLimit
		err.Retryable = true
	case 400, 422:
		err.Type = ErrTypeInvalidRequest
	case 500, 502, 503, 529:
		err.Type = ErrTypeServiceUnavailable
		err.Retryable = true
	default:
		err.Type = ErrTypeUnknown
	}
	return err
}
