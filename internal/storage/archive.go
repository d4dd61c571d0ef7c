package storage

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"

	"github.com/manav03panchal/waterme/internal/errors"
)

// IntegrityStatus is the result of a database health check.
type IntegrityStatus struct {
	Healthy    bool      `json:"healthy"`
	CheckedAt  time.Time `json:"checked_at"`
	ErrorCount int       `json:"error_count"`
	Errors     []string  `json:"errors,omitempty"`
}

// CheckIntegrity reads a sample of values to detect corruption.
func (d *DB) CheckIntegrity() *IntegrityStatus {
	status := &IntegrityStatus{CheckedAt: time.Now(), Healthy: true}

	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10
		it := txn.NewIterator(opts)
		defer it.Close()

		count := 0
		for it.Rewind(); it.Valid() && count < 100; it.Next() {
			item := it.Item()
			if err := item.Value(func([]byte) error { return nil }); err != nil {
				status.Errors = append(status.Errors, fmt.Sprintf("corrupted value at key: %s", item.Key()))
				status.ErrorCount++
			}
			count++
		}
		return nil
	})
	if err != nil {
		status.Errors = append(status.Errors, fmt.Sprintf("iteration error: %v", err))
		status.ErrorCount++
	}
	status.Healthy = status.ErrorCount == 0
	return status
}

// Archive writes a zstd-compressed badger backup of the whole database to w.
func (d *DB) Archive(w io.Writer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := d.db.Backup(enc, 0); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ArchiveTo writes an archive into dir and returns its path. The file is
// written under a temporary name and renamed once complete.
func (d *DB) ArchiveTo(dir string, minFree uint64) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if d.path != "" {
		size, err := DirSize(d.path)
		if err == nil {
			if err := CheckDiskSpace(dir, size, minFree); err != nil {
				return "", err
			}
		}
	}

	name := fmt.Sprintf("legacy-%s.badger.zst", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, ".archive-*.tmp")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			os.Remove(tmpPath)
		}
	}()

	if err := d.Archive(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", err
	}
	ok = true

	d.logger.Info("database archived", "op", "archive", "path", path)
	return path, nil
}

// Restore loads an archive produced by Archive into the database.
func (d *DB) Restore(r io.Reader) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer dec.Close()
	return d.db.Load(dec, 256)
}

// IsDatabaseCorrupted checks if the given error indicates database corruption.
func IsDatabaseCorrupted(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, errors.ErrDatabaseCorrupted) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"checksum mismatch", "corrupt", "unexpected eof", "bad magic", "truncated"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
