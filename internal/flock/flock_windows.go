//go:build windows

package flock

import (
	"fmt"
	"os"
)

// Lock holds an acquired advisory lock. On Windows the existence of the
// lock file is the lock, so Release must run for every Acquire or the
// store stays locked until the file is removed by hand.
type Lock struct {
	file *os.File
	path string
}

// Acquire atomically creates the lock file at path. It returns ErrLocked
// when the file already exists.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600) //nolint:gosec // G304: Path is store-derived
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	return &Lock{file: f, path: path}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release closes and removes the lock file. Safe to call multiple times.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	closeErr := l.file.Close()
	l.file = nil

	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close lock file: %w", closeErr)
	}

	return nil
}
