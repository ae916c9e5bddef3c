package kvgo

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/kvgo/value"
)

// Logger wraps slog.Logger with kvgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that writes JSON-formatted logs to w.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that writes human-readable text logs to w.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithStore adds the store name to the logger.
func (l *Logger) WithStore(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", name),
	}
}

// WithKey adds a key field to the logger.
func (l *Logger) WithKey(key string) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key),
	}
}

// LogOpen logs the outcome of opening a store.
func (l *Logger) LogOpen(name string, keys int, err error) {
	if err != nil {
		l.Error("open failed",
			"store", name,
			"error", err,
		)
	} else {
		l.Info("store opened",
			"store", name,
			"keys", keys,
		)
	}
}

// LogRecovery logs what replaying the data file found at open.
func (l *Logger) LogRecovery(records int, truncated bool, droppedBytes int64) {
	if truncated {
		l.Warn("truncated interrupted write during recovery",
			"records", records,
			"dropped_bytes", droppedBytes,
		)
	} else {
		l.Debug("replay completed",
			"records", records,
		)
	}
}

// LogPut logs a put operation.
func (l *Logger) LogPut(key string, kind value.Kind, err error) {
	if err != nil {
		l.Error("put failed",
			"key", key,
			"kind", kind.String(),
			"error", err,
		)
	} else {
		l.Debug("put completed",
			"key", key,
			"kind", kind.String(),
		)
	}
}

// LogGet logs a get operation. Misses and kind mismatches are part of
// normal operation and stay at debug level.
func (l *Logger) LogGet(key string, err error) {
	switch {
	case err == nil:
		l.Debug("get completed",
			"key", key,
		)
	case errors.Is(err, ErrNotFound) || errors.Is(err, ErrTypeMismatch):
		l.Debug("get failed",
			"key", key,
			"error", err,
		)
	default:
		l.Error("get failed",
			"key", key,
			"error", err,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(key string, err error) {
	if err != nil {
		l.Error("delete failed",
			"key", key,
			"error", err,
		)
	} else {
		l.Debug("delete completed",
			"key", key,
		)
	}
}

// LogClear logs a clear operation.
func (l *Logger) LogClear(err error) {
	if err != nil {
		l.Error("clear failed",
			"error", err,
		)
	} else {
		l.Info("store cleared")
	}
}

// LogCompaction logs a compaction run.
func (l *Logger) LogCompaction(reclaimed int64, err error) {
	if err != nil {
		l.Error("compaction failed",
			"error", err,
		)
	} else {
		l.Info("compaction completed",
			"reclaimed_bytes", reclaimed,
		)
	}
}

// LogBackup logs a backup operation. bytes is the uncompressed size of
// the snapshot.
func (l *Logger) LogBackup(bytes int64, err error) {
	if err != nil {
		l.Error("backup failed",
			"error", err,
		)
	} else {
		l.Info("backup completed",
			"bytes", bytes,
		)
	}
}

// LogRestore logs a restore operation.
func (l *Logger) LogRestore(name string, err error) {
	if err != nil {
		l.Error("restore failed",
			"store", name,
			"error", err,
		)
	} else {
		l.Info("restore completed",
			"store", name,
		)
	}
}

// LogClose logs the outcome of closing a store.
func (l *Logger) LogClose(err error) {
	if err != nil {
		l.Error("close failed",
			"error", err,
		)
	} else {
		l.Debug("store closed")
	}
}
