package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by where it was detected.
type Kind string

const (
	// KindValidation is a client-side field check that failed before any network call.
	KindValidation Kind = "validation"
	// KindAuth is a rejected login.
	KindAuth Kind = "auth"
	// KindNotFound is an email lookup that walked every directory page without a match.
	KindNotFound Kind = "not_found"
	// KindRemote is any other failed call to the directory API, including transport errors.
	KindRemote Kind = "remote"
)

// Error carries the user-visible message alongside the technical cause.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "unknown error"
	}
	var s string
	if e.Op != "" {
		s = e.Op + ": "
	}
	s += e.Message
	if e.Status != 0 {
		s += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Auth(op string, status int, msg string) *Error {
	return &Error{Kind: KindAuth, Op: op, Status: status, Message: msg}
}

func NotFound(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

func Remote(op string, status int, msg string, err error) *Error {
	return &Error{Kind: KindRemote, Op: op, Status: status, Message: msg, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Message returns the text to show the user for err. Errors that did not
// originate in this package fall back to the given default.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
