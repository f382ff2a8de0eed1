package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for empty required fields and invalid values.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned for bad credentials and invalid tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("conflict")
)

// Error carries a message fit for API clients next to one of the sentinel
// kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func notFound(kind, id string) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf("%s not found: %s", kind, id)}
}

func invalid(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Msg: msg}
}

func conflict(format string, args ...interface{}) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}
