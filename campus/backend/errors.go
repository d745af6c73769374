package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx answer of a backend.
type Error struct {
	Service    string
	Operation  string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s.%s: http %d: %s", e.Service, e.Operation, e.StatusCode, e.Body)
}

// Code is used as err_code in handler summaries.
func (e *Error) Code() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "backend_rejected"
	}
	return "backend_error"
}

// UnavailableError is a transport failure: no HTTP answer was received.
type UnavailableError struct {
	Service   string
	Operation string
	// Transient is set for dial failures and timeouts.
	Transient bool
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s.%s: unavailable: %v", e.Service, e.Operation, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Code() string { return "backend_unavailable" }

// DecodeError is a 2xx answer whose body is malformed, lacks a required field
// or carries a mistyped one.
type DecodeError struct {
	Service   string
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s.%s: decode: %v", e.Service, e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Code() string { return "backend_decode" }

// IsUnavailable reports whether err is a transport failure.
func IsUnavailable(err error) bool {
	var u *UnavailableError
	return errors.As(err, &u)
}

// IsRejected reports whether a backend answered with a 4xx status.
func IsRejected(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode >= 400 && e.StatusCode < 500
}

// IsNotFound reports whether a backend answered 404.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}

// IsDecode reports whether a backend answer could not be decoded.
func IsDecode(err error) bool {
	var d *DecodeError
	return errors.As(err, &d)
}
