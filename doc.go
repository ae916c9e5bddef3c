// Package kvgo provides an embedded, typed key-value store for Go.
//
// Kvgo persists scalar and binary values under string keys in a single
// append-only data file, with production-ready features including:
//
//   - Typed values: int64, uint64, float32, float64, bool, string and blob
//   - Durable writes: every put and delete is fsynced before it returns
//   - Crash recovery: an interrupted write is detected and cut off at open
//   - CRC-32 checksums on every record
//   - Explicit compaction with an atomic temp-file and rename install
//   - Key listing in first-insertion order
//   - Streaming zstd backups and validated restore
//   - Structured logging via log/slog and pluggable metrics
//
// # Quick Start
//
//	store, err := kvgo.Open(kvgo.Config{DataDir: "./data", Name: "app"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	if err := store.PutString("greeting", "hello"); err != nil {
//		log.Fatal(err)
//	}
//
//	greeting, err := store.GetString("greeting")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(greeting)
//
// # Typed Access
//
// Every value carries its kind on disk. Reading a key through an accessor
// of a different kind fails with *TypeMismatchError instead of coercing;
// a value written with PutUint is not readable through GetInt even when
// it would fit:
//
//	_ = store.PutInt("answer", 42)
//
//	_, err := store.GetString("answer")
//	if errors.Is(err, kvgo.ErrTypeMismatch) {
//		// requested string, stored int
//	}
//
// Get returns the value along with its kind when the caller does not know
// the kind in advance.
//
// # Durability
//
// By default every put and delete is forced to durable storage before the
// call returns, so an acknowledged write survives a crash. Opening with
// WithSyncWrites(false) trades that guarantee for throughput: writes are
// acknowledged once handed to the OS, and Sync becomes the explicit
// durability point.
//
// At open the data file is replayed front to back. A torn write at the
// tail, the signature of a crash mid-write, is truncated away and the
// store opens with every previously acknowledged write intact. Damage
// anywhere else fails the open with *CorruptError.
//
// # Concurrency
//
// A Store may be shared by any number of goroutines. The same store file
// cannot be opened twice: a second open fails with ErrAlreadyOpen in the
// same process and ErrLocked from another one.
package kvgo
