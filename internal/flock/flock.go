// Package flock provides an advisory file lock so that a second process
// opening the same store fails fast instead of corrupting it.
//
// On unix systems the lock is flock(2) based: it lives on the open file
// description and dies with the process, so a crash never leaves the
// store locked. On Windows the lock is the atomic creation of the lock
// file itself.
package flock

import (
	"errors"
)

// ErrLocked reports that another process already holds the lock.
var ErrLocked = errors.New("file already locked")
