// Package storage provides the embedded document database behind the legacy
// engine: JSON documents in badger, keyed by "<prefix>:<uuid>".
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/cenkalti/backoff/v4"
	badger "github.com/dgraph-io/badger/v4"

	apperrors "github.com/manav03panchal/waterme/internal/errors"
)

const (
	// AppName is the application name used for data directories.
	AppName = "waterme"
	// DirName is the directory of the document database inside the data root.
	DirName = "legacy.badger"
)

// ErrLocked is the cause of the RecoverableError returned when another
// process keeps the database open for longer than the open timeout.
var ErrLocked = fmt.Errorf("document store: %w", apperrors.ErrLockHeld)

// DB wraps a Badger database connection.
type DB struct {
	db     *badger.DB
	path   string
	logger *slog.Logger
}

// Options configures the database connection.
type Options struct {
	// Path is the database directory path. Empty string uses in-memory mode.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
	// OpenTimeout bounds how long Open retries while the directory lock is
	// held by someone else. Zero tries once.
	OpenTimeout time.Duration
	Logger      *slog.Logger
}

// DefaultPath returns the default database path following XDG spec.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, AppName, DirName)
}

// Exists reports whether a database directory exists at path.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// Open opens or creates a database at the given path.
func Open(opts Options) (*DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var badgerOpts badger.Options
	path := ""
	if opts.InMemory || opts.Path == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0755); err != nil {
			return nil, err
		}
		path = opts.Path
		badgerOpts = badger.DefaultOptions(opts.Path)
	}

	badgerOpts = badgerOpts.
		WithLogger(badgerLogger{logger.With("component", "badger")}).
		WithLoggingLevel(badger.ERROR)

	var db *badger.DB
	attempts := 0
	open := func() error {
		var err error
		attempts++
		db, err = badger.Open(badgerOpts)
		if err != nil && !isLockError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 50 * time.Millisecond
	exp.MaxElapsedTime = opts.OpenTimeout
	exp.Reset()
	var policy backoff.BackOff = exp
	if opts.OpenTimeout <= 0 {
		policy = &backoff.StopBackOff{}
	}

	err := backoff.RetryNotify(open, policy, func(err error, wait time.Duration) {
		logger.Debug("database locked, retrying", "path", path, "wait", wait)
	})
	if err != nil {
		if isLockError(err) {
			return nil, apperrors.NewRecoverableError("document store is in use by another process",
				fmt.Errorf("%w: %v", ErrLocked, err), attempts)
		}
		return nil, err
	}

	return &DB{db: db, path: path, logger: logger}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Badger returns the underlying Badger database for advanced operations.
func (d *DB) Badger() *badger.DB {
	return d.db
}

// Path returns the database directory, or "" for in-memory databases.
func (d *DB) Path() string {
	return d.path
}

func isLockError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "directory lock") || strings.Contains(msg, "another process")
}

// badgerLogger routes badger's own logging into slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
