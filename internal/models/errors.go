package models

import (
	"errors"
)

// Error kinds returned by the marketplace. Callers wrap them with details via
// fmt.Errorf("%w: ...") and match them with errors.Is.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAuthorizationDenied    = errors.New("authorization denied")
	ErrInvalidState           = errors.New("invalid state")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyExists          = errors.New("already exists")
	ErrValidation             = errors.New("validation error")
	// ErrUnavailable marks datastore or cache failures the caller may retry.
	ErrUnavailable = errors.New("temporarily unavailable")
)

// ErrorCode returns the stable machine-readable code of the error kind wrapped by err.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return "AUTHENTICATION_REQUIRED"
	case errors.Is(err, ErrAuthorizationDenied):
		return "AUTHORIZATION_DENIED"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}
