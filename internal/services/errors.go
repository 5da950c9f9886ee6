package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Typed failures surfaced by the ledger service. Handlers map them to HTTP
// statuses with ErrorStatus; callers can branch with errors.Is.
var (
	// Precondition failures.
	ErrAlreadyActivated    = errors.New("account is already activated")
	ErrActivationPending   = errors.New("an activation request is already pending")
	ErrNotActivated        = errors.New("account is not activated")
	ErrBelowMinimum        = errors.New("amount is below the minimum withdrawal")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTaskAlreadyComplete = errors.New("task already completed")
	ErrInvalidMethod       = errors.New("unsupported payment method")
	ErrInvalidDecision     = errors.New("decision must be APPROVED or REJECTED")

	// Missing references.
	ErrAccountNotFound = errors.New("account not found")
	ErrRequestNotFound = errors.New("request not found")
	ErrTaskNotFound    = errors.New("task not found")

	// Double resolution of a terminal request.
	ErrAlreadyResolved = errors.New("request already resolved")

	// Caller is not an admin.
	ErrNotAuthorized = errors.New("admin role required")

	// External store failure, wrapped around the driver error.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr tags a raw database error so callers see a single failure kind
// for infrastructure problems while the cause stays in the chain.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// ErrorStatus maps a service error to an HTTP status code.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrRequestNotFound),
		errors.Is(err, ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyResolved),
		errors.Is(err, ErrTaskAlreadyComplete):
		return http.StatusConflict
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrAlreadyActivated),
		errors.Is(err, ErrActivationPending),
		errors.Is(err, ErrNotActivated),
		errors.Is(err, ErrBelowMinimum),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInvalidMethod),
		errors.Is(err, ErrInvalidDecision):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
