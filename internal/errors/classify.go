package errors

import (
	"errors"
	"syscall"

	"github.com/manav03panchal/waterme/internal/datum"
)

// Category represents the type of error for display and handling purposes.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryUser indicates an error the user can fix (bad input, missing args).
	CategoryUser
	// CategorySystem indicates a system-level error (disk full, unreadable store).
	CategorySystem
	// CategoryRecoverable indicates an error that may clear up if retried later.
	CategoryRecoverable
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	// Check for our typed errors first
	if IsUserError(err) {
		return CategoryUser
	}
	if IsSystemError(err) {
		return CategorySystem
	}
	if IsRecoverableError(err) {
		return CategoryRecoverable
	}

	// Recoverable patterns first: a held lock surfaces as a load failure too.
	if isRecoverablePattern(err) {
		return CategoryRecoverable
	}

	// Data layer kinds
	if c, ok := classifyKind(err); ok {
		return c
	}

	// Check for known system errors
	if isSystemLevel(err) {
		return CategorySystem
	}

	// Default to unknown
	return CategoryUnknown
}

// classifyKind maps a data layer error kind to a category. Kinds caused by
// what the user asked for are user errors; storage failures are system
// errors.
func classifyKind(err error) (Category, bool) {
	switch datum.KindOf(err) {
	case nil:
		return CategoryUnknown, false
	case datum.ErrObjectDeleted,
		datum.ErrUnableToDeleteLastReminder,
		datum.ErrImageCouldntBeCompressedEnough,
		datum.ErrIsEnabledFalseUnsupported,
		datum.ErrAmbiguousIdentifier:
		return CategoryUser, true
	default:
		return CategorySystem, true
	}
}

// isSystemLevel checks if an error is a system-level error.
func isSystemLevel(err error) bool {
	// Check for syscall errors
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC: // No space left on device
			return true
		case syscall.EACCES, syscall.EPERM: // Permission denied
			return true
		case syscall.ENOENT: // No such file or directory
			return true
		case syscall.EIO: // I/O error
			return true
		case syscall.EROFS: // Read-only filesystem
			return true
		}
	}

	// Check for our sentinel errors
	if errors.Is(err, ErrDiskFull) || errors.Is(err, ErrDatabaseCorrupted) {
		return true
	}

	return false
}

// isRecoverablePattern checks if an error matches recoverable patterns.
func isRecoverablePattern(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrLockHeld) {
		return true
	}

	// Check for syscall errors that are typically transient
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN: // Resource temporarily unavailable (EWOULDBLOCK is same on Darwin/Linux)
			return true
		case syscall.EINTR: // Interrupted system call
			return true
		}
	}

	return false
}

// FormatByCategory returns a user-appropriate error message based on category.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	category := Classify(err)
	msg := err.Error()
	suggestion := GetSuggestion(err)

	switch category {
	case CategoryUser:
		// User errors: show the message directly, it should be actionable
		msg = Title(err) + ": " + msg
		if suggestion != "" {
			return msg + "\n\nTry: " + suggestion
		}
		return msg

	case CategorySystem:
		// System errors: provide context about the system issue
		if suggestion != "" {
			return "System error: " + msg + "\n\n" + suggestion
		}
		return "System error: " + msg

	case CategoryRecoverable:
		if suggestion != "" {
			return msg + "\n\n" + suggestion
		}
		return msg + " (try again in a moment)"

	default:
		// Unknown errors: just return the message
		return msg
	}
}
