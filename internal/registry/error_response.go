package registry

// error_response.go maps the component error taxonomy to the HTTP error
// response format returned to clients.

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/govdocs-network/govdocs-demo/internal/ca"
	"github.com/govdocs-network/govdocs-demo/internal/ipfs"
	"github.com/govdocs-network/govdocs-demo/internal/ledger"
	"github.com/govdocs-network/govdocs-demo/internal/logger"
	"github.com/govdocs-network/govdocs-demo/internal/wallet"
)

// ErrorResponse is the JSON error payload returned by the API.
type ErrorResponse struct {
	// The HTTP status code returned
	StatusCode int `json:"statusCode"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText"`

	// The failure as seen by this service
	Error string `json:"error"`

	// A unique identifier for the HTTP request
	RequestID string `json:"requestId,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime"`
}

func newErrorResponse(statusCode int, msg, requestID string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode:     statusCode,
		StatusCodeText: http.StatusText(statusCode),
		Error:          msg,
		RequestID:      requestID,
		ErrorDateTime:  time.Now().UTC().Format(time.RFC3339),
	}
}

// MapErrorToResponse maps registry, wallet, ca, ledger, ipfs or generic
// errors to an API error response. Component failures arrive here
// unmodified, so the mapping is the single place where the taxonomy meets
// HTTP status codes.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	var registryErr *RegistryError
	if errors.As(err, &registryErr) {
		switch registryErr.Code() {
		case ErrCodeValidation:
			return newErrorResponse(http.StatusBadRequest, err.Error(), requestID)
		case ErrCodeRequestTooLarge:
			return newErrorResponse(http.StatusRequestEntityTooLarge, err.Error(), requestID)
		case ErrCodeRateLimit:
			return newErrorResponse(http.StatusTooManyRequests, err.Error(), requestID)
		default:
			return newErrorResponse(http.StatusInternalServerError, err.Error(), requestID)
		}
	}

	var ledgerErr *ledger.LedgerError
	if errors.As(err, &ledgerErr) {
		switch ledgerErr.Code() {
		case ledger.ErrCodeIdentityNotFound:
			return newErrorResponse(http.StatusNotFound, err.Error(), requestID)
		case ledger.ErrCodeQueryError:
			// reads of unknown documents surface here
			return newErrorResponse(http.StatusNotFound, err.Error(), requestID)
		case ledger.ErrCodeOrderingTimeout:
			return newErrorResponse(http.StatusGatewayTimeout, err.Error(), requestID)
		case ledger.ErrCodeSessionFailure:
			return newErrorResponse(http.StatusBadGateway, err.Error(), requestID)
		default:
			// endorsement rejections are the authoritative outcome of the
			// transaction; the original API reports them as server errors
			return newErrorResponse(http.StatusInternalServerError, err.Error(), requestID)
		}
	}

	var caErr *ca.CAError
	if errors.As(err, &caErr) {
		switch caErr.Code() {
		case ca.ErrCodeAlreadyEnrolled, ca.ErrCodeAlreadyRegistered:
			return newErrorResponse(http.StatusConflict, err.Error(), requestID)
		case ca.ErrCodeAdminNotEnrolled:
			return newErrorResponse(http.StatusPreconditionFailed, err.Error(), requestID)
		default:
			return newErrorResponse(http.StatusBadGateway, err.Error(), requestID)
		}
	}

	switch {
	case errors.Is(err, wallet.ErrIdentityNotFound):
		return newErrorResponse(http.StatusNotFound, err.Error(), requestID)
	case errors.Is(err, ipfs.ErrNotFound):
		return newErrorResponse(http.StatusNotFound, err.Error(), requestID)
	case errors.Is(err, ipfs.ErrAuthentication), errors.Is(err, ipfs.ErrStorageUnavailable):
		return newErrorResponse(http.StatusBadGateway, err.Error(), requestID)
	}

	// fallback - not expected; log the unmapped error type
	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("error", err.Error()),
		slog.String("request_id", requestID),
	)
	return newErrorResponse(http.StatusInternalServerError, err.Error(), requestID)
}
