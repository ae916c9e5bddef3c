package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/kvgo/datafile"
	"github.com/hupe1980/kvgo/index"
	"github.com/hupe1980/kvgo/internal/flock"
	"github.com/hupe1980/kvgo/internal/fs"
	"github.com/hupe1980/kvgo/record"
	"github.com/hupe1980/kvgo/value"
)

const (
	dataFileExt = ".bsk"
	lockFileExt = ".lock"
	tmpFileExt  = ".bsk.tmp"
)

// Config identifies a store on disk.
type Config struct {
	// DataDir is the directory holding the store's files. It is created
	// at open if absent.
	DataDir string

	// Name is the store's file name stem. It must consist of letters,
	// digits, '.', '_' and '-', and must not start with a dot. The data
	// file is Name + ".bsk" inside DataDir.
	Name string
}

// Validate reports whether the config identifies a usable store location.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrInvalidDir
	}
	if !validName(c.Name) {
		return ErrInvalidName
	}
	return nil
}

// FilePath returns the data file path the config resolves to.
func (c Config) FilePath() string {
	return filepath.Join(c.DataDir, c.Name+dataFileExt)
}

func validName(name string) bool {
	if name == "" || name[0] == '.' {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// Stats describes the current size of a store.
type Stats struct {
	// Keys is the number of live keys.
	Keys int

	// DiskSize is the data file size in bytes.
	DiskSize int64

	// ReclaimableBytes counts the bytes held by overwritten and deleted
	// records, which Compact would reclaim.
	ReclaimableBytes int64
}

// Engine is the storage core of one store. All exported methods are safe
// for concurrent use.
type Engine struct {
	mu sync.RWMutex

	fsys fs.FileSystem
	df   *datafile.DataFile
	idx  *index.Index
	flk  *flock.Lock

	dir     string
	path    string
	tmpPath string
	regKey  string

	dfOptions datafile.Options

	recovery  datafile.RecoveryResult
	deadBytes int64

	compactionRateLimit int
	fileMode            os.FileMode
	closed              bool
}

// Open opens or creates the store described by cfg and rebuilds its index
// by replaying the data file. An interrupted write at the tail is cut off;
// corruption anywhere else fails the open with *datafile.CorruptError.
//
// The store is held exclusively until Close: a second open of the same
// path fails with ErrAlreadyOpen in this process and ErrLocked from
// another one.
func Open(cfg Config, optFns ...func(o *Options)) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.FS == nil {
		opts.FS = fs.Default
	}

	if err := opts.FS.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	regKey := canonicalPath(cfg.DataDir, cfg.Name+dataFileExt)
	if _, loaded := registry.LoadOrStore(regKey, struct{}{}); loaded {
		return nil, ErrAlreadyOpen
	}

	e := &Engine{
		fsys:    opts.FS,
		idx:     index.New(),
		dir:     cfg.DataDir,
		path:    cfg.FilePath(),
		tmpPath: filepath.Join(cfg.DataDir, cfg.Name+tmpFileExt),
		regKey:  regKey,
		dfOptions: datafile.Options{
			SyncWrites:       opts.SyncWrites,
			FileMode:         opts.FileMode,
			ReplayBufferSize: opts.ReplayBufferSize,
			FS:               opts.FS,
		},
		compactionRateLimit: opts.CompactionRateLimit,
		fileMode:            opts.FileMode,
	}

	ok := false
	defer func() {
		if ok {
			return
		}
		if e.df != nil {
			_ = e.df.Close()
		}
		if e.flk != nil {
			_ = e.flk.Release()
		}
		registry.Delete(e.regKey)
	}()

	flk, err := flock.Acquire(filepath.Join(cfg.DataDir, cfg.Name+lockFileExt))
	if err != nil {
		if errors.Is(err, flock.ErrLocked) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to acquire file lock: %w", err)
	}
	e.flk = flk

	// A temp file left behind by an interrupted compaction is scratch;
	// the data file is still the authoritative state.
	if err := opts.FS.Remove(e.tmpPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale temp file: %w", err)
	}

	df, err := datafile.Open(e.path, func(o *datafile.Options) { *o = e.dfOptions })
	if err != nil {
		return nil, err
	}
	e.df = df

	res, err := df.Recover(e.replay)
	if err != nil {
		return nil, err
	}
	e.recovery = res

	ok = true

	return e, nil
}

// replay folds one recovered record into the index and into the dead-byte
// accounting behind Stats and Compact.
func (e *Engine) replay(rec record.Record, _, size int64) error {
	key := string(rec.Key)

	if rec.IsTombstone() {
		// Both the tombstone and whatever it shadows are dead weight.
		e.deadBytes += size
		if held, ok := e.idx.Delete(key); ok {
			e.deadBytes += held.Size
		}
		return nil
	}

	entry := index.Entry{Kind: value.Kind(rec.Tag), Value: rec.Value, Size: size}
	if replaced, ok := e.idx.Put(key, entry); ok {
		e.deadBytes += replaced.Size
	}

	return nil
}

// Recovery reports what replay found at open: how many records were
// loaded and whether an interrupted tail write was cut off.
func (e *Engine) Recovery() datafile.RecoveryResult { return e.recovery }

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if int64(len(key)) > record.MaxKeySize {
		return ErrKeyTooLarge
	}
	return nil
}

// Put stores the encoded value under key, replacing any previous value.
// The record is framed before the lock is taken; the append and the index
// update happen under the exclusive lock. A failed append leaves the file
// and the index exactly as they were. Put retains val; callers must not
// modify it afterwards.
func (e *Engine) Put(key string, kind value.Kind, val []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if int64(len(val)) > record.MaxValueSize {
		return ErrValueTooLarge
	}

	frame := record.AppendPut(nil, []byte(key), kind, val)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	if _, err := e.df.Append(frame); err != nil {
		return err
	}

	entry := index.Entry{Kind: kind, Value: val, Size: int64(len(frame))}
	if replaced, ok := e.idx.Put(key, entry); ok {
		e.deadBytes += replaced.Size
	}

	return nil
}

// Get returns the index entry for key, or ErrNotFound. Entries are
// immutable once stored, so the caller may decode the entry's value after
// the lock is released.
func (e *Engine) Get(key string) (index.Entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return index.Entry{}, ErrClosed
	}

	entry, ok := e.idx.Get(key)
	if !ok {
		return index.Entry{}, ErrNotFound
	}

	return entry, nil
}

// Delete removes key from the store by appending a tombstone. Deleting an
// absent key is a no-op success and appends nothing.
func (e *Engine) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	frame := record.AppendTombstone(nil, []byte(key))

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if !e.idx.Has(key) {
		return nil
	}

	if _, err := e.df.Append(frame); err != nil {
		return err
	}

	held, _ := e.idx.Delete(key)
	e.deadBytes += held.Size + int64(len(frame))

	return nil
}

// Has reports whether key is live in the store.
func (e *Engine) Has(key string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return false, ErrClosed
	}

	return e.idx.Has(key), nil
}

// Keys returns the live keys in first-insertion order.
func (e *Engine) Keys() ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, ErrClosed
	}

	return e.idx.Keys(), nil
}

// Len returns the number of live keys.
func (e *Engine) Len() (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, ErrClosed
	}

	return e.idx.Len(), nil
}

// Sync forces the data file to durable storage. It is the explicit
// durability point when the engine was opened with SyncWrites disabled.
func (e *Engine) Sync() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	return e.df.Sync()
}

// Clear removes every key and truncates the data file to zero length.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	if err := e.df.Reset(); err != nil {
		return err
	}

	e.idx.Reset()
	e.deadBytes = 0

	return nil
}

// Stats returns the store's live key count, disk size, and reclaimable
// byte count.
func (e *Engine) Stats() (Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return Stats{}, ErrClosed
	}

	return Stats{
		Keys:             e.idx.Len(),
		DiskSize:         e.df.Size(),
		ReclaimableBytes: e.deadBytes,
	}, nil
}

// WriteTo streams the raw data file to w under the shared lock, so
// readers proceed while the copy runs but appends wait.
func (e *Engine) WriteTo(w io.Writer) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, ErrClosed
	}

	return e.df.WriteTo(w)
}

// Path returns the data file path.
func (e *Engine) Path() string { return e.path }

// Close syncs the data file, releases the file lock, and unregisters the
// store so it can be opened again. It is safe to call multiple times.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	closeErr := e.df.Close()
	releaseErr := e.flk.Release()
	registry.Delete(e.regKey)

	return errors.Join(closeErr, releaseErr)
}
