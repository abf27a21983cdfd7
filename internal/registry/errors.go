package registry

// errors.go defines the errors raised by the registry workflows themselves.
// Failures from the wallet, CA, storage and ledger components pass through
// this package unmodified.

import (
	"fmt"
	"strings"
)

// RegistryError represents a structured error from the registry package.
type RegistryError struct {
	// code classifies the failure
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *RegistryError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *RegistryError) Code() ErrorCode { return e.code }
func (e *RegistryError) Unwrap() error   { return e.wrapped }

// ErrorCode classifies registry failures.
type ErrorCode int

const (
	// ErrCodeValidation: the caller's input is malformed or incomplete.
	// Always local; nothing is sent to the storage network or the ledger.
	ErrCodeValidation ErrorCode = iota + 1

	// ErrCodeInternal: an unexpected failure inside the workflow.
	ErrCodeInternal

	// ErrCodeRequestTooLarge: the request body exceeds the configured limit.
	ErrCodeRequestTooLarge

	// ErrCodeRateLimit: the caller exceeded the configured request rate.
	ErrCodeRateLimit
)

// NewValidationError creates a validation error for invalid input.
func NewValidationError(msg string) error {
	return &RegistryError{code: ErrCodeValidation, message: msg}
}

// NewMissingFieldsError lists the required fields absent from a request.
func NewMissingFieldsError(fields []string) error {
	return &RegistryError{
		code:    ErrCodeValidation,
		message: fmt.Sprintf("missing required fields: %s", strings.Join(fields, ", ")),
	}
}

// WrapInternalError wraps an unexpected failure.
func WrapInternalError(err error, msg string) error {
	return &RegistryError{code: ErrCodeInternal, message: msg, wrapped: err}
}

// NewRequestTooLargeError creates an error for oversized request bodies.
func NewRequestTooLargeError(msg string) error {
	return &RegistryError{code: ErrCodeRequestTooLarge, message: msg}
}

// NewRateLimitError creates an error for rate-limited requests.
func NewRateLimitError(msg string) error {
	return &RegistryError{code: ErrCodeRateLimit, message: msg}
}
