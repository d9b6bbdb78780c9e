// Package apperr defines the error taxonomy shared by the attestation engine.
//
// Errors are classified by a Code so that boundary layers can map them onto
// transport responses without string matching. Use Is/As from the standard
// errors package to inspect wrapped errors.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies an error category.
type Code string

const (
	// CodeInvalidInput marks malformed or out-of-range caller input.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks a reference that does not resolve.
	CodeNotFound Code = "not_found"
	// CodeRevoked marks a referenced record that has been revoked.
	CodeRevoked Code = "revoked"
	// CodeExpired marks a referenced record past its expiration time.
	CodeExpired Code = "expired"
	// CodeUnverified marks off-chain content whose checksum or embedded
	// signature does not hold up.
	CodeUnverified Code = "unverified"
	// CodeVerificationFailed marks a stamp or proof failing internal checks.
	CodeVerificationFailed Code = "verification_failed"
	// CodeUpstreamUnavailable marks a registry or spatial engine failure.
	CodeUpstreamUnavailable Code = "upstream_unavailable"
	// CodeSignerNotReady marks signing attempted before key material loaded.
	CodeSignerNotReady Code = "signer_not_ready"
	// CodeUnsupportedChain marks a chain with no issuer contract configured.
	CodeUnsupportedChain Code = "unsupported_chain"
	// CodeRateLimited marks a caller exceeding its request budget.
	CodeRateLimited Code = "rate_limited"
)

// Error is a classified engine error. Detail carries enough context to
// reproduce the failing input; it is never truncated.
type Error struct {
	Code   Code
	Detail string
	cause  error
}

// New creates an Error with the given code and detail.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping an underlying cause.
func Wrap(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches two Errors by code, so sentinel-style checks work:
//
//	errors.Is(err, &Error{Code: CodeNotFound})
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the Code from err, or empty string when err is not
// an engine error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
