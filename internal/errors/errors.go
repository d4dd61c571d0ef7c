// Package errors presents failures to CLI users. Errors fall into three
// categories: UserError (fixable by the user), SystemError (storage or
// environment trouble) and RecoverableError (a lock that outlasted its
// retries; trying again later may work).
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for input and environment conditions. Data layer failures
// use the kinds in package datum instead.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrInvalidInterval   = errors.New("invalid interval")
	ErrInvalidKind       = errors.New("invalid reminder kind")
	ErrInvalidSortOrder  = errors.New("invalid sort order")
	ErrInvalidName       = errors.New("invalid display name")
	ErrInvalidNote       = errors.New("invalid note")
	ErrMigrationPending  = errors.New("legacy store has not been migrated")
	ErrDiskFull          = errors.New("disk full")
	ErrDatabaseCorrupted = errors.New("database corrupted")
	ErrLockHeld          = errors.New("store locked by another process")
	ErrTimeout           = errors.New("operation timed out")
)

// UserError is an error the user can fix: bad input, an unknown plant, a
// date in the wrong direction.
type UserError struct {
	Message    string // What happened
	Suggestion string // How to fix it
	Field      string // The flag or argument at fault (optional)
	Value      string // The rejected value (optional)
}

func (e *UserError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("%s: '%s'", e.Message, e.Value)
	}
	return e.Message
}

// NewUserError creates a new UserError.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// NewUserErrorWithField creates a UserError naming the offending input.
func NewUserErrorWithField(field, value, message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Field:      field,
		Value:      value,
		Suggestion: suggestion,
	}
}

// SystemError is an error the user cannot fix directly, such as an
// unreadable store.
type SystemError struct {
	Message string
	Cause   error
}

func (e *SystemError) Error() string {
	return e.Message
}

func (e *SystemError) Unwrap() error {
	return e.Cause
}

// NewSystemError creates a new SystemError.
func NewSystemError(message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
	}
}

// RecoverableError reports a transient condition that survived the retries
// made on the user's behalf. Attempts is how many tries were made before
// giving up.
type RecoverableError struct {
	Message  string
	Cause    error
	Attempts int
}

func (e *RecoverableError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s (gave up after %d attempts)", e.Message, e.Attempts)
	}
	return e.Message
}

func (e *RecoverableError) Unwrap() error {
	return e.Cause
}

// NewRecoverableError creates a new RecoverableError.
func NewRecoverableError(message string, cause error, attempts int) *RecoverableError {
	return &RecoverableError{
		Message:  message,
		Cause:    cause,
		Attempts: attempts,
	}
}

// IsUserError checks if an error is a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// IsSystemError checks if an error is a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// IsRecoverableError checks if an error is a RecoverableError.
func IsRecoverableError(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}

// AsUserError extracts a UserError from an error chain.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	ok := errors.As(err, &ue)
	return ue, ok
}
