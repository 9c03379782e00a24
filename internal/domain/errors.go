package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidSignature indicates the webhook payload failed HMAC
// verification. Handlers must reject the request with 401 and perform no
// further processing.
var ErrInvalidSignature = errors.New("invalid signature")

// UpstreamError represents a network or API-level failure from an external
// service (GitHub or an LLM backend).
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
	Retryable  bool
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s (status: %d)", e.Service, e.Message, e.StatusCode)
}

// Is matches any UpstreamError from the same service, or any UpstreamError
// at all when the target carries no service.
func (e *UpstreamError) Is(target error) bool {
	t, ok := target.(*UpstreamError)
	if !ok {
		return false
	}
	return t.Service == "" || e.Service == t.Service
}

// AnalysisParseError indicates an LLM backend answered but its output could
// not be parsed into the Analysis shape. The report is discarded rather
// than partially filled.
type AnalysisParseError struct {
	Provider string
	Reason   string
}

// Error implements the error interface.
func (e *AnalysisParseError) Error() string {
	return fmt.Sprintf("%s: unparseable analysis: %s", e.Provider, e.Reason)
}

// AllProvidersFailedError wraps the failures from both the primary and the
// fallback analysis backend. FallbackErr is nil when no fallback was
// configured.
type AllProvidersFailedError struct {
	PrimaryProvider  string
	PrimaryErr       error
	FallbackProvider string
	FallbackErr      error
}

// Error implements the error interface.
func (e *AllProvidersFailedError) Error() string {
	if e.FallbackErr == nil {
		return fmt.Sprintf("analysis failed: %s: %v (no fallback configured)", e.PrimaryProvider, e.PrimaryErr)
	}
	return fmt.Sprintf("analysis failed: %s: %v; fallback %s: %v",
		e.PrimaryProvider, e.PrimaryErr, e.FallbackProvider, e.FallbackErr)
}

// Unwrap exposes the underlying provider errors for errors.Is/As.
func (e *AllProvidersFailedError) Unwrap() []error {
	errs := []error{e.PrimaryErr}
	if e.FallbackErr != nil {
		errs = append(errs, e.FallbackErr)
	}
	return errs
}

// PersistenceError wraps a storage layer failure at a named operation.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying storage error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
