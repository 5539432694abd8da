package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers and for the response envelope.
type Code string

const (
	ValidationError   Code = "ValidationError"
	NotFound          Code = "NotFound"
	Conflict          Code = "Conflict"
	// StoreCorrupt labels store warnings; a corrupt collection loads as
	// empty and is never returned as an error.
	StoreCorrupt      Code = "StoreCorrupt"
	DownstreamFailure Code = "DownstreamFailure"
	VersionConflict   Code = "VersionConflict"
	InvalidTransition Code = "InvalidTransition"
	Internal          Code = "Internal"
)

func (c Code) String() string {
	return string(c)
}

// Error is a classified application error.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, apperr.New(apperr.NotFound, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or Internal.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Internal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
