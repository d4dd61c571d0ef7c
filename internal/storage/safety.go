package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/manav03panchal/waterme/internal/errors"
)

// DefaultMinFreeSpace is the headroom kept free on top of what an operation
// needs (10MB).
const DefaultMinFreeSpace = 10 * 1024 * 1024

// DiskSpaceInfo contains information about available disk space.
type DiskSpaceInfo struct {
	Path       string
	TotalBytes uint64
	FreeBytes  uint64
}

// GetDiskSpace returns disk space information for the volume holding path.
// Missing trailing path elements are skipped.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	path = existingAncestor(path)
	total, free, err := statDisk(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk space: %w", err)
	}
	return &DiskSpaceInfo{Path: path, TotalBytes: total, FreeBytes: free}, nil
}

// CheckDiskSpace fails when the volume holding path cannot fit need bytes
// plus minFree. Volumes that cannot be inspected pass.
func CheckDiskSpace(path string, need, minFree uint64) error {
	info, err := GetDiskSpace(path)
	if err != nil {
		return nil
	}
	if info.FreeBytes < need+minFree {
		return errors.NewSystemError(
			fmt.Sprintf("insufficient disk space: %d MB free, need %d MB",
				info.FreeBytes/(1024*1024), (need+minFree)/(1024*1024)),
			errors.ErrDiskFull,
		)
	}
	return nil
}

// DirSize sums the sizes of the regular files below path.
func DirSize(path string) (uint64, error) {
	var total uint64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += uint64(info.Size())
		}
		return nil
	})
	return total, err
}

func existingAncestor(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
