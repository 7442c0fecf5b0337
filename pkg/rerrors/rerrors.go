// Package rerrors provides the typed error taxonomy used across the
// metadata resolver: a code-tagged error value with optional wrapping,
// details, and context, so callers can branch on "what kind of failure"
// without string matching.
package rerrors

import (
	"errors"
	"fmt"
)

// Code identifies a specific resolver failure mode.
type Code string

const (
	CodeUnsupportedProtocol Code = "UNSUPPORTED_PROTOCOL"
	CodeUnsupportedPath     Code = "UNSUPPORTED_PATH"
	CodeInvalidPublicKey    Code = "INVALID_PUBLIC_KEY"
	CodeTransport           Code = "TRANSPORT"
	CodeUnsupportedVersion  Code = "UNSUPPORTED_VERSION"
	CodeMissingServices     Code = "MISSING_SERVICES"
	CodeWrongKind           Code = "WRONG_KIND"
	CodeProviderInvalid     Code = "PROVIDER_INVALID"
	CodeNotImplemented      Code = "NOT_IMPLEMENTED"
	CodeInvalidAccessToken  Code = "INVALID_ACCESS_TOKEN"
)

// ResolverError is a structured error carrying a Code plus optional
// detail, context, and an underlying cause.
type ResolverError struct {
	Code    Code
	Message string
	Details string
	Context map[string]any
	Cause   error
}

func (e *ResolverError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ResolverError) Unwrap() error {
	return e.Cause
}

// New creates a new ResolverError.
func New(code Code, message string) *ResolverError {
	return &ResolverError{Code: code, Message: message, Context: make(map[string]any)}
}

// Newf creates a new ResolverError with a formatted message.
func Newf(code Code, format string, args ...any) *ResolverError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code Code, message string) *ResolverError {
	re := New(code, message)
	re.Cause = err
	return re
}

// Wrapf wraps an existing error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *ResolverError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetails attaches human-readable detail to the error.
func (e *ResolverError) WithDetails(details string) *ResolverError {
	e.Details = details
	return e
}

// WithDetailsf attaches formatted detail to the error.
func (e *ResolverError) WithDetailsf(format string, args ...any) *ResolverError {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

// WithContext attaches a single context key/value pair.
func (e *ResolverError) WithContext(key string, value any) *ResolverError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// As extracts a *ResolverError from err, if any is in its chain.
func As(err error) (*ResolverError, bool) {
	var re *ResolverError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// HasCode reports whether err (or anything it wraps) is a ResolverError
// with the given Code.
func HasCode(err error, code Code) bool {
	re, ok := As(err)
	return ok && re.Code == code
}
