package kvgo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/kvgo/value"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    putCounter   prometheus.Counter
//	    getHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordPut(kind value.Kind, duration time.Duration, err error) {
//	    p.putCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordPut is called after each put operation.
	// kind is the value kind written, duration is the total time taken,
	// err is nil if successful.
	RecordPut(kind value.Kind, duration time.Duration, err error)

	// RecordGet is called after each get operation.
	// hit reports whether the key was present, duration is the time taken,
	// err is nil if successful.
	RecordGet(duration time.Duration, hit bool, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordKeys is called after each key listing.
	// count is the number of keys returned.
	RecordKeys(count int, duration time.Duration)

	// RecordCompaction is called after each compaction run.
	// reclaimed is the number of bytes the rewrite dropped.
	RecordCompaction(duration time.Duration, reclaimed int64, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPut(value.Kind, time.Duration, error)   {}
func (NoopMetricsCollector) RecordGet(time.Duration, bool, error)         {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)            {}
func (NoopMetricsCollector) RecordKeys(int, time.Duration)                {}
func (NoopMetricsCollector) RecordCompaction(time.Duration, int64, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PutCount         atomic.Int64
	PutErrors        atomic.Int64
	PutTotalNanos    atomic.Int64
	GetCount         atomic.Int64
	GetHits          atomic.Int64
	GetErrors        atomic.Int64
	GetTotalNanos    atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	KeysCount        atomic.Int64
	CompactionCount  atomic.Int64
	CompactionErrors atomic.Int64
	ReclaimedBytes   atomic.Int64
}

// RecordPut implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPut(kind value.Kind, duration time.Duration, err error) {
	b.PutCount.Add(1)
	b.PutTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PutErrors.Add(1)
	}
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(duration time.Duration, hit bool, err error) {
	b.GetCount.Add(1)
	b.GetTotalNanos.Add(duration.Nanoseconds())
	if hit {
		b.GetHits.Add(1)
	}
	if err != nil {
		b.GetErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordKeys implements MetricsCollector.
func (b *BasicMetricsCollector) RecordKeys(count int, duration time.Duration) {
	b.KeysCount.Add(1)
}

// RecordCompaction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompaction(duration time.Duration, reclaimed int64, err error) {
	b.CompactionCount.Add(1)
	b.ReclaimedBytes.Add(reclaimed)
	if err != nil {
		b.CompactionErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PutCount:         b.PutCount.Load(),
		PutErrors:        b.PutErrors.Load(),
		PutAvgNanos:      b.getAvgPutNanos(),
		GetCount:         b.GetCount.Load(),
		GetHits:          b.GetHits.Load(),
		GetErrors:        b.GetErrors.Load(),
		GetAvgNanos:      b.getAvgGetNanos(),
		DeleteCount:      b.DeleteCount.Load(),
		DeleteErrors:     b.DeleteErrors.Load(),
		KeysCount:        b.KeysCount.Load(),
		CompactionCount:  b.CompactionCount.Load(),
		CompactionErrors: b.CompactionErrors.Load(),
		ReclaimedBytes:   b.ReclaimedBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgPutNanos() int64 {
	count := b.PutCount.Load()
	if count == 0 {
		return 0
	}
	return b.PutTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgGetNanos() int64 {
	count := b.GetCount.Load()
	if count == 0 {
		return 0
	}
	return b.GetTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PutCount         int64
	PutErrors        int64
	PutAvgNanos      int64
	GetCount         int64
	GetHits          int64
	GetErrors        int64
	GetAvgNanos      int64
	DeleteCount      int64
	DeleteErrors     int64
	KeysCount        int64
	CompactionCount  int64
	CompactionErrors int64
	ReclaimedBytes   int64
}
