package sqlstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/manav03panchal/waterme/internal/errors"
)

// FileName is the database file inside the data root.
const FileName = "waterme.sqlite"

// Exists reports whether a database file exists at path.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dsn builds the go-sqlite3 connection string. In-memory databases get a
// unique shared-cache name so every connection of one controller sees the
// same data.
func dsn(path string, inMemory bool) string {
	if inMemory || path == "" {
		return fmt.Sprintf("file:waterme-%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

// openDB opens the database, retrying while another process holds a write
// lock, and upgrades its schema.
func openDB(opts Options) (*gorm.DB, error) {
	if !opts.InMemory && opts.Path != "" {
		if err := ensureDir(opts.Path); err != nil {
			return nil, err
		}
	}

	var db *gorm.DB
	attempts := 0
	open := func() error {
		var err error
		attempts++
		db, err = gorm.Open(sqlite.Open(dsn(opts.Path, opts.InMemory)), &gorm.Config{
			Logger:  newGormLogger(opts.Logger),
			NowFunc: func() time.Time { return opts.Now().UTC() },
		})
		if err != nil {
			if isBusy(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		sqlDB.SetMaxOpenConns(1)

		if err := ensureSchema(db, opts.Logger); err != nil {
			sqlDB.Close()
			if isBusy(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
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
		opts.Logger.Debug("database busy, retrying", "path", opts.Path, "wait", wait)
	})
	if err != nil {
		if isBusy(err) {
			return nil, busyError(err, attempts)
		}
		return nil, err
	}
	return db, nil
}

// busyError reports a database that stayed locked through every attempt.
func busyError(err error, attempts int) error {
	return apperrors.NewRecoverableError("relational store is in use by another process",
		fmt.Errorf("%w: %v", apperrors.ErrLockHeld, err), attempts)
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// ErrSchemaTooNew is returned for databases written by a newer release.
var ErrSchemaTooNew = errors.New("schema is newer than this release supports")
