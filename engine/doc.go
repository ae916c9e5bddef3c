// Package engine implements the storage core behind a kvgo store.
//
// One Engine owns one append-only data file, the in-memory index rebuilt
// from it at open, and the locking that keeps both consistent:
//   - an advisory file lock so a second process fails fast instead of
//     corrupting the file
//   - a process-local registry so a second in-process open is rejected
//   - a single read-write mutex serializing mutations against readers
//
// Writes append framed records (see package record) and update the index
// only after the append landed durably, so a failed put changes nothing.
// Deletes append tombstones. Compact rewrites the file down to the live
// records through an atomic temp-file rename.
//
// The engine is silent: it performs no logging and records no metrics.
// The kvgo package wraps it with the observable, typed API.
package engine
