// Package apierrors defines the error taxonomy surfaced by the SDK.
//
// Every failure leaving a public entry point is an *Error carrying a Kind
// that callers branch on with Is or errors.As; the boundary layer maps each
// kind to a transport-appropriate status. Errors are never downgraded to a
// generic failure and never retried internally.
package apierrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// KindValidation marks malformed or incomplete input caught before any
	// network call.
	KindValidation Kind = "validation"
	// KindUnsupportedMethod marks a blockchain method tag with no registered
	// backend.
	KindUnsupportedMethod Kind = "unsupported_method"
	// KindConfiguration marks a required base URL or prefix that is not
	// resolvable at call time.
	KindConfiguration Kind = "configuration"
	// KindAnchor marks a failed ledger write: transport failure, non-2xx
	// response, or malformed response envelope.
	KindAnchor Kind = "anchor"
	// KindVerificationFailed marks a completed verification call that
	// reported a non-success outcome.
	KindVerificationFailed Kind = "verification_failed"
	// KindVault marks a secret-material write that failed after a successful
	// ledger anchor. The anchor is not rolled back.
	KindVault Kind = "vault"
	// KindNotFound marks a resolution or lookup with no matching record.
	KindNotFound Kind = "not_found"
)

// Error is the structured error emitted by the SDK.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode and Body capture the upstream HTTP response when the
	// failure originated from the ledger agent.
	StatusCode int
	Body       string
	Err        error
}

// Error satisfies the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (upstream status %d)", e.Kind, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err (or anything it wraps) is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validationf creates a KindValidation error.
func Validationf(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// UnsupportedMethodf creates a KindUnsupportedMethod error.
func UnsupportedMethodf(format string, args ...any) *Error {
	return New(KindUnsupportedMethod, format, args...)
}

// Configurationf creates a KindConfiguration error.
func Configurationf(format string, args ...any) *Error {
	return New(KindConfiguration, format, args...)
}

// NotFoundf creates a KindNotFound error.
func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Anchor creates a KindAnchor error around an underlying cause. statusCode
// and body hold the upstream response when one was received; both are zero
// for pure transport failures.
func Anchor(err error, statusCode int, body string, format string, args ...any) *Error {
	return &Error{
		Kind:       KindAnchor,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
		Body:       body,
		Err:        err,
	}
}

// VerificationFailed creates a KindVerificationFailed error carrying the
// upstream status and body.
func VerificationFailed(statusCode int, body string, format string, args ...any) *Error {
	return &Error{
		Kind:       KindVerificationFailed,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
		Body:       body,
	}
}

// Vault creates a KindVault error around an underlying cause.
func Vault(err error, format string, args ...any) *Error {
	return Wrap(KindVault, err, format, args...)
}
