package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "github.com/manav03panchal/waterme/internal/errors"
)

var (
	// ErrLockAcquireFailed is returned when the lock cannot be acquired.
	ErrLockAcquireFailed = errors.New("failed to acquire lock")
	// ErrLockAlreadyHeld is returned when another process holds the lock.
	ErrLockAlreadyHeld = fmt.Errorf("maintenance lock: %w", apperrors.ErrLockHeld)
)

// FileLock is an advisory, cross-process lock on a file in the data root.
// The main program and any administrative process use it to keep one-shot
// maintenance such as migration exclusive.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a lock named name inside dir.
func NewFileLock(dir, name string) *FileLock {
	return &FileLock{path: filepath.Join(dir, name)}
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire attempts to acquire the lock once.
func (l *FileLock) Acquire() error {
	if err := l.cleanStaleLock(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	if err := flockAcquire(file); err != nil {
		file.Close()
		if errors.Is(err, ErrLockAlreadyHeld) {
			if pid := l.readPID(); pid > 0 {
				return &LockError{Err: err, PID: pid}
			}
		}
		return err
	}

	if err := file.Truncate(0); err == nil {
		if _, err := file.Seek(0, 0); err == nil {
			fmt.Fprintf(file, "%d", os.Getpid())
			file.Sync()
		}
	}

	l.file = file
	return nil
}

// AcquireWithin retries Acquire while the lock is held elsewhere, for at
// most timeout. Giving up while the lock is still held returns a
// RecoverableError.
func (l *FileLock) AcquireWithin(timeout time.Duration) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 25 * time.Millisecond
	exp.MaxElapsedTime = timeout
	exp.Reset()

	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := l.Acquire()
		if err != nil && !errors.Is(err, ErrLockAlreadyHeld) {
			return backoff.Permanent(err)
		}
		return err
	}, exp)
	if err != nil && errors.Is(err, ErrLockAlreadyHeld) {
		return apperrors.NewRecoverableError("store maintenance is running in another process",
			fmt.Errorf("%w: %w", apperrors.ErrTimeout, err), attempts)
	}
	return err
}

// Release releases the lock and removes the lock file.
func (l *FileLock) Release() error {
	if l.file == nil {
		return nil
	}
	if err := flockRelease(l.file); err != nil {
		l.file.Close()
		l.file = nil
		return err
	}
	if err := l.file.Close(); err != nil {
		l.file = nil
		return err
	}
	l.file = nil
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// cleanStaleLock removes a lock file left behind by a process that is gone.
func (l *FileLock) cleanStaleLock() error {
	pid := l.readPID()
	if pid <= 0 || pid == os.Getpid() || isProcessRunning(pid) {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clean stale lock: %v", err)
	}
	return nil
}

// readPID reads the PID from the lock file.
// Returns 0 if the file doesn't exist or doesn't contain a valid PID.
func (l *FileLock) readPID() int {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// LockError reports which process holds a lock.
type LockError struct {
	Err error
	PID int
}

func (e *LockError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("another waterme process (PID %d) is maintaining the store", e.PID)
	}
	return fmt.Sprintf("cannot lock store: %v", e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}
