package ledger

// errors.go defines the error codes surfaced by the transaction gateway.

import "fmt"

// LedgerError represents a structured error from the ledger package.
type LedgerError struct {
	// code classifies the failure
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *LedgerError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *LedgerError) Code() ErrorCode { return e.code }
func (e *LedgerError) Unwrap() error   { return e.wrapped }

// ErrorCode classifies gateway failures.
type ErrorCode int

const (
	// ErrCodeIdentityNotFound is used when the requested identity has no
	// record in the credential wallet. The failure is raised before any
	// network connection is attempted.
	ErrCodeIdentityNotFound ErrorCode = iota + 1

	// ErrCodeSessionFailure is used when a gateway session cannot be
	// established (bad credential material, connection setup failure).
	ErrCodeSessionFailure

	// ErrCodeSessionClosed is used when a session is used after its scope
	// ended. A closed session is terminal and must never be reused.
	ErrCodeSessionClosed

	// ErrCodeEndorsementFailure is used when endorsing peers reject a
	// proposal or the committed transaction fails validation. Chaincode
	// business-rule rejections (duplicate docID, revoking an already-revoked
	// document) surface with this code.
	ErrCodeEndorsementFailure

	// ErrCodeOrderingTimeout is used when a submitted transaction cannot be
	// delivered to ordering or its commit status is not learned in time.
	ErrCodeOrderingTimeout

	// ErrCodeQueryError is used when a read-only evaluation fails, including
	// chaincode "not found" responses.
	ErrCodeQueryError
)

// NewIdentityNotFoundError wraps a wallet lookup miss.
func NewIdentityNotFoundError(err error, name string) error {
	return &LedgerError{code: ErrCodeIdentityNotFound, message: fmt.Sprintf("identity %q not found in wallet", name), wrapped: err}
}

// WrapSessionError wraps a session establishment failure.
func WrapSessionError(err error, msg string) error {
	return &LedgerError{code: ErrCodeSessionFailure, message: msg, wrapped: err}
}

// NewSessionClosedError reports use of a session after teardown.
func NewSessionClosedError(op string) error {
	return &LedgerError{code: ErrCodeSessionClosed, message: fmt.Sprintf("session already closed: %s refused", op)}
}

// WrapEndorsementError wraps a proposal or validation rejection.
func WrapEndorsementError(err error, txName string) error {
	return &LedgerError{code: ErrCodeEndorsementFailure, message: fmt.Sprintf("transaction %s rejected", txName), wrapped: err}
}

// WrapOrderingError wraps an ordering or commit-status failure.
func WrapOrderingError(err error, txName string) error {
	return &LedgerError{code: ErrCodeOrderingTimeout, message: fmt.Sprintf("transaction %s not committed", txName), wrapped: err}
}

// WrapQueryError wraps an evaluate failure.
func WrapQueryError(err error, txName string) error {
	return &LedgerError{code: ErrCodeQueryError, message: fmt.Sprintf("query %s failed", txName), wrapped: err}
}
