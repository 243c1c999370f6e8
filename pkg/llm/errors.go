package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures so callers can decide how to react
// without branching on provider-specific error shapes.
type ErrorKind string

const (
	// ErrKindMissingCredentials means the call was rejected before any network
	// activity because no API key was supplied.
	ErrKindMissingCredentials ErrorKind = "missing_credentials"

	// ErrKindUnsupportedProvider means the provider identifier did not resolve
	// in the registry. Rejected before any network activity.
	ErrKindUnsupportedProvider ErrorKind = "unsupported_provider"

	// ErrKindNetwork means the transport itself failed (DNS, connection
	// refused, timeout). The user may simply resubmit.
	ErrKindNetwork ErrorKind = "network"

	// ErrKindProvider means the provider answered with a non-2xx status.
	ErrKindProvider ErrorKind = "provider"
)

// Error is the single failure type every Complete call surfaces. It always
// carries the provider identifier and a human-readable message.
type Error struct {
	Provider string
	Kind     ErrorKind

	// StatusCode is set for ErrKindProvider only.
	StatusCode int

	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("llm %s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("llm: %s", e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError reports whether err is (or wraps) a gateway Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the gateway classification of err, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether resubmitting the same turn may succeed. The
// gateway itself never retries; LLM calls are not safe to replay blindly.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	switch e.Kind {
	case ErrKindNetwork:
		return true
	case ErrKindProvider:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}
