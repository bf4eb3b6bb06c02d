// Package apperr holds the error taxonomy shared by the services and the HTTP modules.
package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrQuotaExceeded = errors.New("widget quota exceeded")
	ErrInvalidPlan   = errors.New("invalid plan")
	ErrInvalidType   = errors.New("invalid widget type")
	ErrInvalidEvent  = errors.New("invalid event type")
	ErrValidation    = errors.New("validation error")
)

// Status maps an error to the HTTP status a handler should answer with.
// Anything outside the taxonomy is a store or programming failure and becomes a 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrInvalidPlan),
		errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrInvalidEvent),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show to a client. Internal failures are masked.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
