// Package apperr defines the error categories shared by services and the
// mapping from those categories to HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("database unavailable")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation returns an error wrapping ErrValidation with the given message.
func Validation(format string, args ...interface{}) error {
	return &categorized{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFound returns an error wrapping ErrNotFound for the named entity.
func NotFound(entity string) error {
	return &categorized{kind: ErrNotFound, msg: entity + " not found"}
}

// Unauthorized returns an error wrapping ErrUnauthorized.
func Unauthorized(format string, args ...interface{}) error {
	return &categorized{kind: ErrUnauthorized, msg: fmt.Sprintf(format, args...)}
}

// Conflict returns an error wrapping ErrConflict with the given message.
func Conflict(format string, args ...interface{}) error {
	return &categorized{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// categorized carries a user-facing message while still matching its sentinel
// through errors.Is.
type categorized struct {
	kind error
	msg  string
}

func (e *categorized) Error() string { return e.msg }
func (e *categorized) Unwrap() error { return e.kind }

// Status returns the HTTP status code for err.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTP converts err into an *echo.HTTPError. Internal errors are not echoed
// back to the client.
func HTTP(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	status := Status(err)
	if status == http.StatusInternalServerError {
		return echo.NewHTTPError(status, "internal server error").SetInternal(err)
	}
	return echo.NewHTTPError(status, err.Error()).SetInternal(err)
}
