package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/time/rate"

	"github.com/hupe1980/kvgo/datafile"
	"github.com/hupe1980/kvgo/index"
	"github.com/hupe1980/kvgo/record"
)

const compactionBufferSize = 256 * 1024

// Compact rewrites the data file down to the live records, in index
// order, dropping tombstones and overwritten versions. The rewrite goes
// to a temp file that is synced and atomically renamed over the data
// file, so a crash at any point leaves the previous state intact.
//
// Compact holds the exclusive lock for the whole rewrite. When nothing is
// reclaimable it returns immediately.
func (e *Engine) Compact() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.deadBytes == 0 {
		return nil
	}

	if err := e.rewrite(); err != nil {
		return fmt.Errorf("compaction failed: %w", err)
	}

	// The rename detached the old descriptor from the path; swap in a
	// handle on the compacted file.
	_ = e.df.Close()

	df, err := datafile.Open(e.path, func(o *datafile.Options) { *o = e.dfOptions })
	if err != nil {
		// Without a live descriptor the engine cannot continue. Shut it
		// down so later calls fail with ErrClosed instead of panicking;
		// the compacted file on disk is complete and reopens cleanly.
		e.closed = true
		_ = e.flk.Release()
		registry.Delete(e.regKey)

		return fmt.Errorf("failed to reopen compacted file: %w", err)
	}

	e.df = df
	e.deadBytes = 0

	return nil
}

// rewrite streams every live record into the temp file and installs it
// over the data file with rename + directory fsync.
func (e *Engine) rewrite() error {
	f, err := e.fsys.OpenFile(e.tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, e.fileMode)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	defer func() {
		if f != nil {
			_ = f.Close()
			_ = e.fsys.Remove(e.tmpPath)
		}
	}()

	var w io.Writer = f
	if e.compactionRateLimit > 0 {
		w = newThrottledWriter(f, e.compactionRateLimit)
	}
	bw := bufio.NewWriterSize(w, compactionBufferSize)

	var frame []byte
	var writeErr error
	e.idx.Range(func(key string, entry index.Entry) bool {
		frame = record.AppendPut(frame[:0], []byte(key), entry.Kind, entry.Value)
		_, writeErr = bw.Write(frame)
		return writeErr == nil
	})
	if writeErr != nil {
		return fmt.Errorf("failed to write temp file: %w", writeErr)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		f = nil
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	f = nil // rename owns the file from here

	if err := e.fsys.Rename(e.tmpPath, e.path); err != nil {
		_ = e.fsys.Remove(e.tmpPath)
		return fmt.Errorf("failed to install compacted file: %w", err)
	}

	return syncDir(e.fsys, e.dir)
}

// throttledWriter caps write throughput with a token bucket. Writes
// larger than the bucket are split so a wait never exceeds the burst.
type throttledWriter struct {
	w   io.Writer
	lim *rate.Limiter
	ctx context.Context
}

func newThrottledWriter(w io.Writer, bytesPerSec int) *throttledWriter {
	return &throttledWriter{
		w:   w,
		lim: rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec),
		// Compaction is not cancelable; the public API carries no context.
		ctx: context.Background(),
	}
}

func (t *throttledWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) > 0 {
		chunk := len(p)
		if burst := t.lim.Burst(); chunk > burst {
			chunk = burst
		}

		if err := t.lim.WaitN(t.ctx, chunk); err != nil {
			return written, err
		}

		n, err := t.w.Write(p[:chunk])
		written += n
		if err != nil {
			return written, err
		}

		p = p[chunk:]
	}

	return written, nil
}
