package engine

import "errors"

var (
	// ErrNotFound is returned when the requested key is not in the store.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned when an operation is attempted on a closed
	// engine.
	ErrClosed = errors.New("store is closed")

	// ErrAlreadyOpen is returned when the store is already open in this
	// process.
	ErrAlreadyOpen = errors.New("store already open in this process")

	// ErrLocked is returned when another process holds the store's file
	// lock.
	ErrLocked = errors.New("store locked by another process")

	// ErrEmptyKey is returned when a key is empty.
	ErrEmptyKey = errors.New("key is empty")

	// ErrKeyTooLarge is returned when a key exceeds the framing limit.
	ErrKeyTooLarge = errors.New("key exceeds framing limit")

	// ErrValueTooLarge is returned when an encoded value exceeds the
	// framing limit.
	ErrValueTooLarge = errors.New("value exceeds framing limit")

	// ErrInvalidName is returned when a config carries a store name that
	// is not filesystem-safe.
	ErrInvalidName = errors.New("store name is not filesystem-safe")

	// ErrInvalidDir is returned when a config carries no data directory.
	ErrInvalidDir = errors.New("data directory is empty")
)
