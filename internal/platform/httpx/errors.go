// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-rbac/internal/shared"
)

// StatusFor maps taxonomy errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUnauthenticated), errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a problem response. Internal errors are reported
// with fallback so no storage detail leaks to the caller.
func RespondError(w http.ResponseWriter, err error, fallback string) {
	status := StatusFor(err)
	message := shared.UserSafeMessage(err, fallback)
	if status == http.StatusInternalServerError {
		message = fallback
	}
	Problem(w, status, http.StatusText(status), message)
}
