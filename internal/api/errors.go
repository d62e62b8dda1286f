package api

import (
	"errors"
	"net/http"

	"github.com/taskstream/taskstream-api/internal/domain"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the domain error kind. This prevents leaking internal
// error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrBusinessRuleViolation),
		errors.Is(err, domain.ErrInvalidOperation):
		return http.StatusUnprocessableEntity

	case errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing error message. Domain error
// messages are written for clients and pass through; everything else is
// replaced by a generic message so internal details never leak.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "An unexpected error occurred"
}
