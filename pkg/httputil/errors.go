package httputil

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by providers whose credential is not configured.
var ErrMissingAPIKey = errors.New("api key not configured")

// ErrorKind classifies a failed provider call.
type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindRateLimit  ErrorKind = "rate_limit"
	KindServer     ErrorKind = "server"
	KindClient     ErrorKind = "client"
	KindValidation ErrorKind = "validation"
	KindTimeout    ErrorKind = "timeout"
)

// ProviderError is returned by GetJSON and the provider clients.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether repeating the call may succeed.
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindRateLimit, KindServer, KindTimeout:
		return true
	}
	return false
}

// ClassifyStatus maps a non-2xx status code to a ProviderError.
func ClassifyStatus(statusCode int) *ProviderError {
	switch {
	case statusCode == 429:
		return &ProviderError{Kind: KindRateLimit, StatusCode: statusCode, Message: "rate limit exceeded"}
	case statusCode >= 500:
		return &ProviderError{Kind: KindServer, StatusCode: statusCode, Message: "server returned an error"}
	default:
		return &ProviderError{Kind: KindClient, StatusCode: statusCode, Message: fmt.Sprintf("client error: HTTP %d", statusCode)}
	}
}

// ClassifyTransport wraps a transport level failure.
func ClassifyTransport(err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: KindTimeout, Message: "request timed out", Cause: err}
	}
	return &ProviderError{Kind: KindNetwork, Message: "network request failed", Cause: err}
}

// NewValidationError reports a well formed response with unusable content.
func NewValidationError(format string, args ...interface{}) *ProviderError {
	return &ProviderError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the ErrorKind of err, or "" when err is not a ProviderError.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
