// Package common defines the sentinel errors shared by services and HTTP
// handlers. Callers should match them with errors.Is.
package common

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")

	// ErrMissingDrop is returned when a sender tries to add messages before
	// publishing a drop.
	ErrMissingDrop = errors.New("missing drop")
)

// Error carries a user-facing message on top of one of the sentinels above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Invalid returns an ErrInvalidInput with the given message.
func Invalid(msg string) error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

// Conflict returns an ErrConflict with the given message.
func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// NotFound returns an ErrNotFound with the given message.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Unauthenticated returns an ErrUnauthenticated with the given message.
func Unauthenticated(msg string) error {
	return &Error{Kind: ErrUnauthenticated, Message: msg}
}

// MissingDrop returns an ErrMissingDrop with the given message.
func MissingDrop(msg string) error {
	return &Error{Kind: ErrMissingDrop, Message: msg}
}

// Message extracts the user-facing message from err, or returns fallback
// when err does not carry one.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
