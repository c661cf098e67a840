package errors

import (
	"errors"
	"net/http"
)

// MapToStatus converts a domain error into the HTTP status code returned by
// the sync API. Unknown errors are treated as internal so that low-level
// storage failures never leak their message to the client.
func MapToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Reason extracts the human-readable reason reported alongside every rejected
// operation. Internal errors are masked with a generic reason.
func Reason(err error) string {
	if MapToStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
