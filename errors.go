package kvgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/kvgo/datafile"
	"github.com/hupe1980/kvgo/engine"
	"github.com/hupe1980/kvgo/value"
)

var (
	// ErrNotFound is returned when the requested key is not in the store.
	ErrNotFound = errors.New("not found")

	// ErrTypeMismatch matches *TypeMismatchError under errors.Is. It is
	// never returned directly.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrClosed is returned when an operation is attempted on a closed
	// store.
	ErrClosed = errors.New("store closed")

	// ErrAlreadyOpen is returned when the store is already open in this
	// process.
	ErrAlreadyOpen = errors.New("store already open")

	// ErrLocked is returned when another process holds the store's file
	// lock.
	ErrLocked = errors.New("store locked")

	// ErrEmptyKey is returned when a key is empty.
	ErrEmptyKey = errors.New("empty key")

	// ErrKeyTooLarge is returned when a key exceeds the record format's
	// limit.
	ErrKeyTooLarge = errors.New("key too large")

	// ErrValueTooLarge is returned when an encoded value exceeds the
	// record format's limit.
	ErrValueTooLarge = errors.New("value too large")

	// ErrInvalidName is returned when a config carries a store name that
	// is not filesystem-safe.
	ErrInvalidName = errors.New("invalid store name")

	// ErrInvalidDir is returned when a config carries no data directory.
	ErrInvalidDir = errors.New("invalid data directory")

	// ErrStoreExists is returned by Restore when the target store already
	// exists.
	ErrStoreExists = errors.New("store already exists")

	// ErrInvalidBackup is returned by Restore when the stream is not a
	// complete, undamaged snapshot produced by Backup.
	ErrInvalidBackup = errors.New("invalid backup stream")
)

// TypeMismatchError reports a read through an accessor of a different
// kind than the one the key was written with. Values are never coerced
// across kinds.
type TypeMismatchError struct {
	// Key is the key that was read.
	Key string

	// Requested is the kind the accessor asked for.
	Requested value.Kind

	// Stored is the kind the key actually holds.
	Stored value.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for key %q: requested %s, stored %s", e.Key, e.Requested, e.Stored)
}

// Is reports a match against ErrTypeMismatch, so callers can test with
// errors.Is without naming the struct type.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// CorruptError reports unrecoverable store damage: a record that fails
// its checksum or cannot be parsed, outside the repairable tail of the
// data file. The store refuses to open (or a read fails) rather than
// serve data it cannot vouch for.
type CorruptError struct {
	// Path is the data file.
	Path string

	// Offset is the file offset of the damaged record, or -1 when the
	// damage was found while decoding an in-memory value.
	Offset int64

	cause error
}

func (e *CorruptError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("corrupt store %s: %v", e.Path, e.cause)
	}
	return fmt.Sprintf("corrupt store %s at offset %d: %v", e.Path, e.Offset, e.cause)
}

// Unwrap returns the underlying parse or decode error.
func (e *CorruptError) Unwrap() error {
	return e.cause
}

// translateError maps storage-layer errors into the public error
// vocabulary. Errors with no public counterpart pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var corrupt *datafile.CorruptError
	if errors.As(err, &corrupt) {
		return &CorruptError{Path: corrupt.Path, Offset: corrupt.Offset, cause: err}
	}

	switch {
	case errors.Is(err, engine.ErrNotFound):
		return fmt.Errorf("kvgo: %w: %w", ErrNotFound, err)
	case errors.Is(err, engine.ErrClosed):
		return fmt.Errorf("kvgo: %w: %w", ErrClosed, err)
	case errors.Is(err, engine.ErrAlreadyOpen):
		return fmt.Errorf("kvgo: %w: %w", ErrAlreadyOpen, err)
	case errors.Is(err, engine.ErrLocked):
		return fmt.Errorf("kvgo: %w: %w", ErrLocked, err)
	case errors.Is(err, engine.ErrEmptyKey):
		return fmt.Errorf("kvgo: %w: %w", ErrEmptyKey, err)
	case errors.Is(err, engine.ErrKeyTooLarge):
		return fmt.Errorf("kvgo: %w: %w", ErrKeyTooLarge, err)
	case errors.Is(err, engine.ErrValueTooLarge):
		return fmt.Errorf("kvgo: %w: %w", ErrValueTooLarge, err)
	case errors.Is(err, engine.ErrInvalidName):
		return fmt.Errorf("kvgo: %w: %w", ErrInvalidName, err)
	case errors.Is(err, engine.ErrInvalidDir):
		return fmt.Errorf("kvgo: %w: %w", ErrInvalidDir, err)
	}

	return err
}
