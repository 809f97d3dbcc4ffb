package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel error classes for the purchase flow. Transient classes are retried
// with bounded backoff inside the component that issued the upstream call;
// fatal classes propagate immediately.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrPricingUnavailable  = errors.New("pricing unavailable")
	ErrRegistrationFailed  = errors.New("registration failed")
	ErrWalletUnavailable   = errors.New("wallet unavailable")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrUnsupportedTier     = errors.New("unsupported license tier")
	ErrProviderUnavailable = errors.New("licensing provider unavailable")
	ErrUpstreamRejected    = errors.New("rejected by upstream")
)

// PurchaseError tags a failure with the state-machine stage it occurred in so
// the caller can render a specific message instead of a generic one.
type PurchaseError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *PurchaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("purchase failed at %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("purchase failed at %s: %s", e.Stage, e.Reason)
}

func (e *PurchaseError) Unwrap() error {
	return e.Err
}

func NewPurchaseError(stage, reason string, err error) *PurchaseError {
	return &PurchaseError{Stage: stage, Reason: reason, Err: err}
}

// IsTransient reports whether the error class is worth retrying. Insufficient
// funds and malformed requests never are.
func IsTransient(err error) bool {
	return errors.Is(err, ErrPricingUnavailable) ||
		errors.Is(err, ErrRegistrationFailed) ||
		errors.Is(err, ErrWalletUnavailable) ||
		errors.Is(err, ErrProviderUnavailable)
}

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

var (
	ErrUnauthorized       = NewAPIError(http.StatusUnauthorized, "Unauthorized")
	ErrNotFound           = NewAPIError(http.StatusNotFound, "Resource not found")
	ErrTooManyRequests    = NewAPIError(http.StatusTooManyRequests, "Too many requests")
	ErrInternalServer     = NewAPIError(http.StatusInternalServerError, "Internal server error")
	ErrServiceUnavailable = NewAPIError(http.StatusServiceUnavailable, "Service unavailable")
)

// HTTPStatus maps an error to the status the API layer should respond with.
func HTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrUnsupportedTier):
		return http.StatusBadRequest
	case errors.Is(err, ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrUpstreamRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrPricingUnavailable),
		errors.Is(err, ErrWalletUnavailable),
		errors.Is(err, ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrRegistrationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func WrapError(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}
