package jwtgen

import (
	"errors"
	"fmt"
)

// ErrorCode represents the failure categories of the signing pipeline.
type ErrorCode string

const (
	ErrCodeConfiguration ErrorCode = "configuration_error"
	ErrCodeClaim         ErrorCode = "claim_error"
	ErrCodeKeyMaterial   ErrorCode = "key_material_error"
	ErrCodeSigning       ErrorCode = "signing_error"
	ErrCodeTemplate      ErrorCode = "template_error"
)

// Error wraps pipeline errors with a stable code and a human readable message.
// Messages identify the offending value but never include key material.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

func newError(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code ErrorCode, err error, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}
