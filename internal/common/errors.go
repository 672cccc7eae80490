// Package common holds the error values and logging setup shared by every
// ledger package.
package common

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// UserError carries a message meant for the person at the terminal
// alongside the underlying cause.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.UserMessage
	}
	return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
}

func (e *UserError) Unwrap() error { return e.Err }

// NewUserError wraps err with a message for the user.
func NewUserError(userMessage string, err error) error {
	return &UserError{UserMessage: userMessage, Err: err}
}

// IsNotFound reports whether err means a record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
