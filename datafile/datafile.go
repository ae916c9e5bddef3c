// Package datafile owns the append-only log file backing one store: it
// appends framed records durably, replays them at open, and truncates
// interrupted writes off the tail.
//
// The file carries no header; it is a bare sequence of records, so a
// freshly created file is simply empty.
package datafile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/kvgo/internal/fs"
)

// DataFile is an append-oriented log of records. It is not safe for
// concurrent use; the engine serializes access.
type DataFile struct {
	fsys             fs.FileSystem
	file             fs.File
	path             string
	size             int64
	syncWrites       bool
	replayBufferSize int
}

// Open opens or creates the log file at path and positions it for
// appending. A pre-existing file should be run through Recover before
// the first append so an interrupted last write is cut off.
func Open(path string, optFns ...func(o *Options)) (*DataFile, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.FS == nil {
		opts.FS = fs.Default
	}

	file, err := opts.FS.OpenFile(path, os.O_CREATE|os.O_RDWR, opts.FileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}

	st, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat data file: %w", err)
	}

	if _, err := file.Seek(st.Size(), io.SeekStart); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to seek data file: %w", err)
	}

	return &DataFile{
		fsys:             opts.FS,
		file:             file,
		path:             path,
		size:             st.Size(),
		syncWrites:       opts.SyncWrites,
		replayBufferSize: opts.ReplayBufferSize,
	}, nil
}

// Append writes one framed record at the end of the log and returns its
// offset. With SyncWrites the record is forced to durable storage before
// Append returns. On any failure the file is rolled back to its previous
// size, so a failed append leaves no partial bytes behind.
func (d *DataFile) Append(frame []byte) (int64, error) {
	off := d.size

	n, err := d.file.Write(frame)
	if err == nil && n < len(frame) {
		err = io.ErrShortWrite
	}
	if err == nil && d.syncWrites {
		err = d.file.Sync()
	}
	if err != nil {
		if rbErr := d.rollback(off); rbErr != nil {
			return 0, errors.Join(err, rbErr)
		}
		return 0, err
	}

	d.size += int64(len(frame))

	return off, nil
}

// rollback restores the file to a prior size after a failed append and
// repositions the write cursor.
func (d *DataFile) rollback(size int64) error {
	if err := d.fsys.Truncate(d.path, size); err != nil {
		return fmt.Errorf("rollback truncate failed: %w", err)
	}
	if _, err := d.file.Seek(size, io.SeekStart); err != nil {
		return fmt.Errorf("rollback seek failed: %w", err)
	}
	return nil
}

// Sync forces the log to durable storage. It is the explicit durability
// point when SyncWrites is off.
func (d *DataFile) Sync() error {
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync data file: %w", err)
	}
	return nil
}

// Reset truncates the log to zero length. The truncation is synced so a
// cleared store stays cleared across a crash.
func (d *DataFile) Reset() error {
	if err := d.fsys.Truncate(d.path, 0); err != nil {
		return fmt.Errorf("failed to truncate data file: %w", err)
	}
	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek data file: %w", err)
	}
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync data file: %w", err)
	}

	d.size = 0

	return nil
}

// WriteTo copies the log from the start to w. It opens an independent
// read handle, so the write cursor is untouched and several copies may
// run at once as long as no append runs concurrently. It implements
// io.WriterTo for backup streaming.
func (d *DataFile) WriteTo(w io.Writer) (int64, error) {
	f, err := d.fsys.OpenFile(d.path, os.O_RDONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to open data file for reading: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(w, io.LimitReader(f, d.size))
	if err != nil {
		return n, fmt.Errorf("failed to copy data file: %w", err)
	}

	return n, nil
}

// Size returns the current log size in bytes, which is also the offset
// of the next append.
func (d *DataFile) Size() int64 { return d.size }

// Path returns the file path of the log.
func (d *DataFile) Path() string { return d.path }

// Close syncs and releases the file handle. It is safe to call multiple
// times.
func (d *DataFile) Close() error {
	if d.file == nil {
		return nil
	}

	syncErr := d.file.Sync()
	closeErr := d.file.Close()
	d.file = nil

	if syncErr != nil {
		return fmt.Errorf("failed to sync data file: %w", syncErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close data file: %w", closeErr)
	}

	return nil
}
