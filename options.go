package kvgo

import (
	"log/slog"
	"os"
)

type options struct {
	syncWrites          bool
	compactionRateLimit int
	metricsCollector    MetricsCollector
	logger              *Logger
}

// Option configures Open behavior.
//
// Options primarily exist to avoid exploding the API surface; the
// zero-option call opens a fully durable, silent store.
type Option func(*options)

// WithSyncWrites controls whether every put and delete is forced to
// durable storage before it returns. It is on by default.
//
// Turning it off acknowledges writes once they are handed to the OS,
// which is dramatically faster but loses the most recent writes if the
// machine crashes. Sync then becomes the explicit durability point.
func WithSyncWrites(sync bool) Option {
	return func(o *options) {
		o.syncWrites = sync
	}
}

// WithCompactionRateLimit caps compaction disk writes at bytesPerSec.
// Zero, the default, means unthrottled.
//
// Use it to keep a large compaction from saturating disk bandwidth that
// concurrent store traffic needs.
func WithCompactionRateLimit(bytesPerSec int) Option {
	return func(o *options) {
		o.compactionRateLimit = bytesPerSec
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations.
//
// If nil is passed, NoopMetricsCollector is used.
//
// Example with BasicMetricsCollector:
//
//	metrics := &kvgo.BasicMetricsCollector{}
//	store, _ := kvgo.Open(cfg, kvgo.WithMetricsCollector(metrics))
//	// ... use store ...
//	stats := metrics.GetStats()
//	fmt.Printf("Puts: %d, Avg latency: %dns\n", stats.PutCount, stats.PutAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// If nil is passed, NoopLogger is used.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel enables text logging to stderr at the given level. It is
// shorthand for WithLogger(NewTextLogger(os.Stderr, level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(os.Stderr, level)
	}
}

func applyOptions(optFns []Option) options {
	opts := options{
		syncWrites:       true,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	return opts
}
