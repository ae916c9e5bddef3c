package kvgo

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/kvgo/engine"
	"github.com/hupe1980/kvgo/record"
)

const backupBufferSize = 256 * 1024

// Backup streams a zstd-compressed snapshot of the store to w. The
// snapshot is a consistent point-in-time copy: it is taken under the
// store's shared lock, so concurrent reads proceed while writes wait for
// the copy to finish.
//
// Feed the stream to Restore to rebuild the store elsewhere.
func (s *Store) Backup(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		err = fmt.Errorf("kvgo: failed to create compressor: %w", err)
		s.logger.LogBackup(0, err)

		return err
	}

	n, err := s.engine.WriteTo(zw)
	if err != nil {
		_ = zw.Close()

		err = translateError(err)
		s.logger.LogBackup(n, err)

		return err
	}

	if err := zw.Close(); err != nil {
		err = fmt.Errorf("kvgo: failed to flush compressor: %w", err)
		s.logger.LogBackup(n, err)

		return err
	}

	s.logger.LogBackup(n, nil)

	return nil
}

// Restore writes the snapshot read from r, as produced by Backup, to the
// store location described by cfg, creating the data directory if
// needed. It refuses to overwrite an existing store with ErrStoreExists.
//
// Every record in the stream is verified before the store is installed
// with an atomic rename, so a damaged or truncated backup fails with
// ErrInvalidBackup and leaves nothing behind. Unlike open-time recovery,
// damage at the tail is not repaired: a backup stream is complete by
// construction, so a truncated one is a bad backup rather than an
// interrupted write.
//
// Restore does not open the store; follow it with Open.
func Restore(r io.Reader, cfg Config, optFns ...Option) error {
	opts := applyOptions(optFns)

	err := restore(r, cfg)

	opts.logger.LogRestore(cfg.Name, err)

	return err
}

func restore(r io.Reader, cfg Config) error {
	ecfg := engine.Config{DataDir: cfg.DataDir, Name: cfg.Name}
	if err := ecfg.Validate(); err != nil {
		return translateError(err)
	}

	target := ecfg.FilePath()

	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("kvgo: %w: %s", ErrStoreExists, target)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("kvgo: failed to stat store file: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("kvgo: failed to create data directory: %w", err)
	}

	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("kvgo: failed to create decompressor: %w", err)
	}
	defer zr.Close()

	// Decompress into a temp file next to the target so the final rename
	// stays on one filesystem and is atomic.
	tmp, err := os.CreateTemp(cfg.DataDir, cfg.Name+".restore-*")
	if err != nil {
		return fmt.Errorf("kvgo: failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()

		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0600); err != nil {
		return fmt.Errorf("kvgo: failed to chmod temp file: %w", err)
	}

	bw := bufio.NewWriterSize(tmp, backupBufferSize)

	size, err := io.Copy(bw, zr)
	if err != nil {
		return fmt.Errorf("kvgo: %w: %w", ErrInvalidBackup, err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("kvgo: failed to flush temp file: %w", err)
	}

	if err := verifySnapshot(tmp, size); err != nil {
		return err
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kvgo: failed to sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvgo: failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("kvgo: failed to install store file: %w", err)
	}

	tmpName = "" // the rename consumed the temp file

	syncDir(cfg.DataDir)

	return nil
}

// verifySnapshot replays every record in the decompressed snapshot and
// rejects the whole restore on the first damaged one.
func verifySnapshot(f *os.File, size int64) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("kvgo: failed to rewind temp file: %w", err)
	}

	rd := record.NewReader(f, size, backupBufferSize)

	for {
		_, _, err := rd.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("kvgo: %w: %w", ErrInvalidBackup, err)
		}
	}
}

// syncDir makes a completed rename durable. Best effort: some systems
// reject fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}

	_ = d.Sync()
	_ = d.Close()
}
