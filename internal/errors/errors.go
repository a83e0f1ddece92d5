package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the task client
var (
	// Session errors
	ErrNoSession         = errors.New("no session")
	ErrPartialCredential = errors.New("credential must carry both access token and user")
	ErrRefreshFailed     = errors.New("session refresh failed")

	// Response errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal error") // any 5xx
)

// APIError is a failed response from the REST API. Message is the server's
// "message" field when it sent one.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

// Is lets errors.Is match an APIError against the status sentinels above.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	case ErrInternal:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// RefreshError carries the cause of a failed refresh. It matches both
// ErrRefreshFailed and its cause.
type RefreshError struct {
	Cause error
}

func (e *RefreshError) Error() string {
	if e.Cause == nil {
		return ErrRefreshFailed.Error()
	}
	return ErrRefreshFailed.Error() + ": " + e.Cause.Error()
}

func (e *RefreshError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrRefreshFailed}
	}
	return []error{ErrRefreshFailed, e.Cause}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
