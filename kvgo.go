package kvgo

import (
	"time"

	"github.com/hupe1980/kvgo/engine"
	"github.com/hupe1980/kvgo/value"
)

// Store is an embedded, typed key-value store backed by a single
// append-only data file. All methods are safe for concurrent use.
//
// A Store holds its data file exclusively until Close; see Open.
type Store struct {
	engine  *engine.Engine
	metrics MetricsCollector
	logger  *Logger
}

// Open opens the store described by cfg, creating it if it does not
// exist, and rebuilds the in-memory index by replaying the data file.
//
// A write interrupted by a crash leaves a torn record at the file tail;
// Open truncates it away and recovers every fully written record before
// it. Damage anywhere else fails the open with *CorruptError rather
// than silently dropping data.
//
// The store is held exclusively until Close: a second Open of the same
// path fails with ErrAlreadyOpen in this process and ErrLocked from
// another one.
func Open(cfg Config, optFns ...Option) (*Store, error) {
	opts := applyOptions(optFns)

	eng, err := engine.Open(engine.Config{DataDir: cfg.DataDir, Name: cfg.Name}, func(o *engine.Options) {
		o.SyncWrites = opts.syncWrites
		o.CompactionRateLimit = opts.compactionRateLimit
	})
	if err != nil {
		err = translateError(err)
		opts.logger.LogOpen(cfg.Name, 0, err)

		return nil, err
	}

	s := &Store{
		engine:  eng,
		metrics: opts.metricsCollector,
		logger:  opts.logger.WithStore(cfg.Name),
	}

	rec := eng.Recovery()
	s.logger.LogRecovery(rec.Records, rec.Truncated, rec.DroppedBytes)

	keys, _ := eng.Len()
	opts.logger.LogOpen(cfg.Name, keys, nil)

	return s, nil
}

// PutInt stores a signed 64-bit integer under key.
func (s *Store) PutInt(key string, v int64) error {
	return s.put(key, value.Int(v))
}

// PutUint stores an unsigned 64-bit integer under key.
func (s *Store) PutUint(key string, v uint64) error {
	return s.put(key, value.Uint(v))
}

// PutFloat32 stores a 32-bit float under key. The bit pattern round-trips
// exactly, NaN payloads and negative zero included.
func (s *Store) PutFloat32(key string, v float32) error {
	return s.put(key, value.Float32(v))
}

// PutFloat64 stores a 64-bit float under key. The bit pattern round-trips
// exactly, NaN payloads and negative zero included.
func (s *Store) PutFloat64(key string, v float64) error {
	return s.put(key, value.Float64(v))
}

// PutBool stores a boolean under key.
func (s *Store) PutBool(key string, v bool) error {
	return s.put(key, value.Bool(v))
}

// PutString stores a text value under key. The text must be valid UTF-8;
// anything else fails with value.ErrInvalidUTF8 before touching the file.
func (s *Store) PutString(key string, v string) error {
	return s.put(key, value.String(v))
}

// PutBlob stores an arbitrary byte sequence under key. The bytes are
// copied, so the caller may reuse v after the call.
func (s *Store) PutBlob(key string, v []byte) error {
	return s.put(key, value.Blob(v))
}

// Put stores a tagged value under key, replacing any previous value of
// any kind. It is the kind-generic form of the typed Put methods.
func (s *Store) Put(key string, v value.Value) error {
	return s.put(key, v)
}

func (s *Store) put(key string, v value.Value) error {
	start := time.Now()

	data, err := value.Encode(v)
	if err == nil {
		err = s.engine.Put(key, v.Kind(), data)
	}
	err = translateError(err)

	duration := time.Since(start)
	s.metrics.RecordPut(v.Kind(), duration, err)
	s.logger.LogPut(key, v.Kind(), err)

	return err
}

// GetInt returns the signed integer stored under key.
func (s *Store) GetInt(key string) (int64, error) {
	v, err := s.getTyped(key, value.KindInt)
	if err != nil {
		return 0, err
	}

	n, _ := v.AsInt()

	return n, nil
}

// GetUint returns the unsigned integer stored under key. A value written
// with PutInt is not readable through GetUint, even when it would fit;
// kinds never coerce.
func (s *Store) GetUint(key string) (uint64, error) {
	v, err := s.getTyped(key, value.KindUint)
	if err != nil {
		return 0, err
	}

	n, _ := v.AsUint()

	return n, nil
}

// GetFloat32 returns the 32-bit float stored under key.
func (s *Store) GetFloat32(key string) (float32, error) {
	v, err := s.getTyped(key, value.KindFloat32)
	if err != nil {
		return 0, err
	}

	f, _ := v.AsFloat32()

	return f, nil
}

// GetFloat64 returns the 64-bit float stored under key.
func (s *Store) GetFloat64(key string) (float64, error) {
	v, err := s.getTyped(key, value.KindFloat64)
	if err != nil {
		return 0, err
	}

	f, _ := v.AsFloat64()

	return f, nil
}

// GetBool returns the boolean stored under key.
func (s *Store) GetBool(key string) (bool, error) {
	v, err := s.getTyped(key, value.KindBool)
	if err != nil {
		return false, err
	}

	b, _ := v.AsBool()

	return b, nil
}

// GetString returns the text stored under key.
func (s *Store) GetString(key string) (string, error) {
	v, err := s.getTyped(key, value.KindString)
	if err != nil {
		return "", err
	}

	str, _ := v.AsString()

	return str, nil
}

// GetBlob returns the bytes stored under key. The returned slice is the
// caller's to keep; mutating it does not affect the store.
func (s *Store) GetBlob(key string) ([]byte, error) {
	v, err := s.getTyped(key, value.KindBlob)
	if err != nil {
		return nil, err
	}

	b, _ := v.AsBlob()

	return b, nil
}

// Get returns the value stored under key, whatever its kind. Use it when
// the kind is not known in advance; the typed Get methods are otherwise
// more convenient.
func (s *Store) Get(key string) (value.Value, error) {
	start := time.Now()

	v, hit, err := s.load(key)

	duration := time.Since(start)
	s.metrics.RecordGet(duration, hit, err)
	s.logger.LogGet(key, err)

	return v, err
}

// getTyped loads the value for key and enforces the requested kind. A
// present key of another kind fails with *TypeMismatchError; the key is
// never coerced or partially read.
func (s *Store) getTyped(key string, want value.Kind) (value.Value, error) {
	start := time.Now()

	v, hit, err := s.load(key)
	if err == nil && v.Kind() != want {
		err = &TypeMismatchError{Key: key, Requested: want, Stored: v.Kind()}
		v = value.Value{}
	}

	duration := time.Since(start)
	s.metrics.RecordGet(duration, hit, err)
	s.logger.LogGet(key, err)

	return v, err
}

// load fetches and decodes the entry for key. The bool reports an index
// hit, which metrics count separately from errors.
func (s *Store) load(key string) (value.Value, bool, error) {
	entry, err := s.engine.Get(key)
	if err != nil {
		return value.Value{}, false, translateError(err)
	}

	v, err := value.Decode(entry.Kind, entry.Value)
	if err != nil {
		// The encoder only writes valid payloads, so a decode failure
		// means the store's state was damaged after the fact.
		return value.Value{}, true, &CorruptError{Path: s.engine.Path(), Offset: -1, cause: err}
	}

	return v, true, nil
}

// Delete removes key from the store. Deleting an absent key is a no-op
// success, so Delete is idempotent.
func (s *Store) Delete(key string) error {
	start := time.Now()

	err := translateError(s.engine.Delete(key))

	duration := time.Since(start)
	s.metrics.RecordDelete(duration, err)
	s.logger.LogDelete(key, err)

	return err
}

// Has reports whether key is live in the store, without reading its
// value.
func (s *Store) Has(key string) (bool, error) {
	ok, err := s.engine.Has(key)

	return ok, translateError(err)
}

// Keys returns a snapshot of the live keys in first-insertion order:
// overwriting a key keeps its position, deleting and re-putting it moves
// the key to the end.
func (s *Store) Keys() ([]string, error) {
	start := time.Now()

	keys, err := s.engine.Keys()

	s.metrics.RecordKeys(len(keys), time.Since(start))

	return keys, translateError(err)
}

// Len returns the number of live keys.
func (s *Store) Len() (int, error) {
	n, err := s.engine.Len()

	return n, translateError(err)
}

// Sync forces all written data to durable storage. It is the explicit
// durability point for stores opened with WithSyncWrites(false); with
// the default options every write syncs itself and Sync is a no-op.
func (s *Store) Sync() error {
	return translateError(s.engine.Sync())
}

// Clear removes every key and truncates the data file to zero length.
func (s *Store) Clear() error {
	err := translateError(s.engine.Clear())

	s.logger.LogClear(err)

	return err
}

// Stats returns the store's live key count, its data file size, and the
// byte count a Compact call would reclaim.
func (s *Store) Stats() (Stats, error) {
	st, err := s.engine.Stats()
	if err != nil {
		return Stats{}, translateError(err)
	}

	return Stats{
		Keys:             st.Keys,
		DiskSize:         st.DiskSize,
		ReclaimableBytes: st.ReclaimableBytes,
	}, nil
}

// Compact rewrites the data file keeping only the latest live record per
// key, dropping overwritten values and tombstones. Reads observe no
// change: every key keeps its value and its position in Keys; only the
// file shrinks.
//
// The rewrite goes to a temp file that atomically replaces the data file
// on success, so a crash mid-compaction leaves the previous file intact.
// Writes block for the duration; reads proceed until the final swap.
func (s *Store) Compact() error {
	start := time.Now()

	before, err := s.engine.Stats()
	if err != nil {
		return translateError(err)
	}

	err = translateError(s.engine.Compact())

	var reclaimed int64
	if err == nil {
		reclaimed = before.ReclaimableBytes
	}

	duration := time.Since(start)
	s.metrics.RecordCompaction(duration, reclaimed, err)
	s.logger.LogCompaction(reclaimed, err)

	return err
}

// Path returns the path of the data file backing the store.
func (s *Store) Path() string {
	return s.engine.Path()
}

// Close flushes the store and releases its data file and lock. It is
// safe to call multiple times; every operation after Close fails with
// ErrClosed.
func (s *Store) Close() error {
	err := translateError(s.engine.Close())

	s.logger.LogClose(err)

	return err
}
