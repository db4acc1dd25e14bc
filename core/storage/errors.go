package storage

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of storage failure. Callers branch on it.
type Code string

const (
	// CodeValidation marks malformed input (empty ids, bad shapes).
	CodeValidation Code = "VALIDATION"
	// CodePayloadTooLarge marks uploads over the size ceiling.
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
	// CodeUnsupportedMediaType marks content types outside the allow-list.
	CodeUnsupportedMediaType Code = "UNSUPPORTED_MEDIA_TYPE"
	// CodeNotFound marks a missing object or local source file.
	CodeNotFound Code = "NOT_FOUND"
	// CodePermissionDenied marks a backend policy rejection.
	CodePermissionDenied Code = "PERMISSION_DENIED"
	// CodeBadRequest marks a request the backend refused as malformed or disallowed.
	CodeBadRequest Code = "BAD_REQUEST"
	// CodeUnavailable marks transient backend failures (rate limit, 5xx, deadline).
	CodeUnavailable Code = "BACKEND_UNAVAILABLE"
	// CodeFatalInit marks an engine that could not reach the backend at startup.
	CodeFatalInit Code = "FATAL_INIT"
	// CodeInternal marks failures nobody classified.
	CodeInternal Code = "INTERNAL"
)

// Transient reports whether a failure of this class is worth retrying.
func (c Code) Transient() bool {
	return c == CodeUnavailable
}

// Expected reports whether the code is a normal application outcome
// rather than an operational incident.
func (c Code) Expected() bool {
	switch c {
	case CodeValidation, CodePayloadTooLarge, CodeUnsupportedMediaType,
		CodeNotFound, CodePermissionDenied, CodeBadRequest:
		return true
	default:
		return false
	}
}

// HTTPStatus maps the code to the status a caller should answer with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case CodeNotFound:
		return http.StatusNotFound
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeUnavailable, CodeFatalInit:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the single typed error every storage operation returns.
type Error struct {
	Code Code
	// Op is the operation that failed (e.g. "stat", "upload").
	Op string
	// Key is the object key or local path involved, if any.
	Key string
	// Msg is a human readable detail for validation failures.
	Msg string
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Key != "" {
		msg += " (" + e.Key + ")"
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Op == "" && t.Key == ""
}

// Sentinels for errors.Is matching.
var (
	ErrValidation           = &Error{Code: CodeValidation}
	ErrPayloadTooLarge      = &Error{Code: CodePayloadTooLarge}
	ErrUnsupportedMediaType = &Error{Code: CodeUnsupportedMediaType}
	ErrNotFound             = &Error{Code: CodeNotFound}
	ErrPermissionDenied     = &Error{Code: CodePermissionDenied}
	ErrBadRequest           = &Error{Code: CodeBadRequest}
	ErrUnavailable          = &Error{Code: CodeUnavailable}
	ErrFatalInit            = &Error{Code: CodeFatalInit}
	ErrInternal             = &Error{Code: CodeInternal}
)

// Errorf builds a validation-style error carrying a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
