package runtime

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	apperrors "github.com/manav03panchal/waterme/internal/errors"
)

// DiskFullError represents a disk full condition with additional context.
type DiskFullError struct {
	Op      string // The operation that failed (e.g., "export")
	Path    string // The path involved, if known
	wrapped error
}

func (e *DiskFullError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("disk full during %s on %s: %v", e.Op, e.Path, e.wrapped)
	}
	return fmt.Sprintf("disk full during %s: %v", e.Op, e.wrapped)
}

func (e *DiskFullError) Unwrap() []error {
	return []error{apperrors.ErrDiskFull, e.wrapped}
}

// NewDiskFullError creates a new DiskFullError.
func NewDiskFullError(op, path string, err error) *DiskFullError {
	return &DiskFullError{
		Op:      op,
		Path:    path,
		wrapped: err,
	}
}

// diskFullPatterns match messages of libraries that do not wrap ENOSPC.
var diskFullPatterns = []string{
	"no space left on device",
	"disk full",
	"not enough space",
	"insufficient disk space",
}

// IsDiskFullError checks if an error indicates a disk full condition.
// It checks for ENOSPC and common disk full error patterns.
func IsDiskFullError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, apperrors.ErrDiskFull) || errors.Is(err, syscall.ENOSPC) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range diskFullPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// WrapDiskFullError wraps an error as a DiskFullError if it indicates disk full.
// If the error is not a disk full error, it returns the original error unchanged.
func WrapDiskFullError(err error, op, path string) error {
	if err == nil {
		return nil
	}
	var dfe *DiskFullError
	if errors.As(err, &dfe) {
		return err
	}
	if IsDiskFullError(err) {
		return NewDiskFullError(op, path, err)
	}
	return err
}
