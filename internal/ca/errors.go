package ca

// errors.go defines the error codes for the enrollment workflows.

import "fmt"

// CAError represents a structured error from the ca package.
type CAError struct {
	// code classifies the failure
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *CAError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *CAError) Code() ErrorCode { return e.code }
func (e *CAError) Unwrap() error   { return e.wrapped }

// ErrorCode classifies certificate-authority client failures.
type ErrorCode int

const (
	// ErrCodeAlreadyEnrolled: the admin identity is already in the wallet.
	// Idempotent no-op for the provisioning scripts; logged, not fatal.
	ErrCodeAlreadyEnrolled ErrorCode = iota + 1

	// ErrCodeAlreadyRegistered: the target identity name is already in the
	// wallet. The existence check is best-effort and non-atomic.
	ErrCodeAlreadyRegistered

	// ErrCodeAdminNotEnrolled: user registration requires a previously
	// enrolled admin identity. Raised before any CA network call.
	ErrCodeAdminNotEnrolled

	// ErrCodeEnrollment: the CA rejected the request or could not be
	// reached (bad secret, network failure, TLS trust failure).
	ErrCodeEnrollment
)

// NewAlreadyEnrolledError reports an identity that is already enrolled.
func NewAlreadyEnrolledError(name string) error {
	return &CAError{code: ErrCodeAlreadyEnrolled, message: fmt.Sprintf("identity %q already exists in the wallet", name)}
}

// NewAlreadyRegisteredError reports an identity that is already registered.
func NewAlreadyRegisteredError(name string) error {
	return &CAError{code: ErrCodeAlreadyRegistered, message: fmt.Sprintf("identity %q already exists in the wallet", name)}
}

// NewAdminNotEnrolledError reports a missing admin identity.
func NewAdminNotEnrolledError(err error, adminName string) error {
	return &CAError{
		code:    ErrCodeAdminNotEnrolled,
		message: fmt.Sprintf("admin identity %q not found in the wallet, run enroll-admin first", adminName),
		wrapped: err,
	}
}

// NewEnrollmentError reports a CA protocol failure.
func NewEnrollmentError(msg string) error {
	return &CAError{code: ErrCodeEnrollment, message: msg}
}

// WrapEnrollmentError wraps an existing error as a CA protocol failure.
func WrapEnrollmentError(err error, msg string) error {
	return &CAError{code: ErrCodeEnrollment, message: msg, wrapped: err}
}
