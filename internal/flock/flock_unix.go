//go:build unix

package flock

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock holds an acquired advisory lock. The underlying file handle must
// stay open for the lock's lifetime.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive, non-blocking flock(2) on path, creating
// the lock file if needed. It returns ErrLocked when another process
// (or another open of the same store in this process) holds it.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600) //nolint:gosec // G304: Path is store-derived
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return &Lock{file: f, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release drops the lock. The lock file itself stays behind; the flock
// lives on the file description, so a leftover file holds nothing. Safe
// to call multiple times.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	flockErr := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if flockErr != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.path, flockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close lock file: %w", closeErr)
	}

	return nil
}
