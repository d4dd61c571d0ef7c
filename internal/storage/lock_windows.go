//go:build windows

package storage

import "os"

// Windows keeps the lock through the open handle; there is nothing to flock.
func flockAcquire(file *os.File) error {
	return nil
}

func flockRelease(file *os.File) error {
	return nil
}

// isProcessRunning assumes a recorded process is alive unless it cannot be
// found at all.
func isProcessRunning(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	p.Release()
	return true
}
