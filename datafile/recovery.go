package datafile

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/kvgo/record"
)

// CorruptError reports unrecoverable log damage: a record that fails its
// checksum or cannot be parsed, found before the tail of the file. Tail
// damage is the signature of an interrupted write and is repaired by
// truncation instead.
type CorruptError struct {
	Path   string
	Offset int64
	cause  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt data file %s at offset %d: %v", e.Path, e.Offset, e.cause)
}

// Unwrap returns the underlying parse error.
func (e *CorruptError) Unwrap() error { return e.cause }

// RecoveryResult describes what a recovery scan found.
type RecoveryResult struct {
	// Records is the number of good records replayed, tombstones
	// included.
	Records int
	// Truncated reports whether tail damage was cut off.
	Truncated bool
	// TruncatedAt is the offset the log was cut at when Truncated.
	TruncatedAt int64
	// DroppedBytes is the number of bytes discarded by the cut.
	DroppedBytes int64
}

// Recover scans the log once from the start, invoking fn for every good
// record with its offset and framed size. fn may be nil when only
// validation and tail repair are wanted.
//
// An incomplete record at the tail - a frame that runs past the end of
// the file, or a damaged record that ends exactly at it - is the remains
// of an interrupted write: the log is truncated back to the last good
// record boundary and recovery succeeds. Damage anywhere before the tail
// fails with *CorruptError.
//
// After Recover returns the write cursor sits at the end of the repaired
// log.
func (d *DataFile) Recover(fn func(rec record.Record, off, size int64) error) (RecoveryResult, error) {
	var res RecoveryResult

	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return res, fmt.Errorf("failed to seek data file: %w", err)
	}

	r := record.NewReader(d.file, d.size, d.replayBufferSize)

	var off int64
	for {
		rec, n, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if !recoverableAt(err, r.Remaining()) {
				return res, &CorruptError{Path: d.path, Offset: off, cause: err}
			}
			if trErr := d.truncateTo(off); trErr != nil {
				return res, trErr
			}
			res.Truncated = true
			res.TruncatedAt = off
			res.DroppedBytes = d.size - off
			d.size = off
			break
		}

		if fn != nil {
			if err := fn(rec, off, n); err != nil {
				return res, err
			}
		}

		off += n
		res.Records++
	}

	if _, err := d.file.Seek(d.size, io.SeekStart); err != nil {
		return res, fmt.Errorf("failed to seek data file: %w", err)
	}

	return res, nil
}

// recoverableAt decides whether a parse failure is tail damage. A
// truncated frame always is. A checksum mismatch is only when the
// damaged record ran to the end of the file; anything before that is
// real corruption. Structurally invalid records leave no way to find
// the next boundary and are never recoverable.
func recoverableAt(err error, remaining int64) bool {
	if errors.Is(err, record.ErrTruncated) {
		return true
	}
	return record.IsChecksumMismatch(err) && remaining == 0
}

// truncateTo cuts the log at off and makes the cut durable.
func (d *DataFile) truncateTo(off int64) error {
	if err := d.fsys.Truncate(d.path, off); err != nil {
		return fmt.Errorf("failed to truncate data file: %w", err)
	}
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync data file: %w", err)
	}
	return nil
}
