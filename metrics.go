package fieldarray

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting snapshot metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    writeBytes   prometheus.Counter
//	    readDuration prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordSnapshotWrite(bytes int64, d time.Duration, err error) {
//	    p.writeBytes.Add(float64(bytes))
//	}
type MetricsCollector interface {
	// RecordSnapshotWrite is called after each snapshot encode with the
	// number of bytes written.
	RecordSnapshotWrite(bytes int64, duration time.Duration, err error)

	// RecordSnapshotRead is called after each snapshot decode with the
	// number of bytes consumed. Exhausted sources are not recorded.
	RecordSnapshotRead(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSnapshotWrite(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshotRead(int64, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteBytes      atomic.Int64
	WriteTotalNanos atomic.Int64
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadBytes       atomic.Int64
	ReadTotalNanos  atomic.Int64
}

// RecordSnapshotWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshotWrite(bytes int64, duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteBytes.Add(bytes)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordSnapshotRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshotRead(bytes int64, duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadBytes.Add(bytes)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		WriteCount:    b.WriteCount.Load(),
		WriteErrors:   b.WriteErrors.Load(),
		WriteBytes:    b.WriteBytes.Load(),
		WriteAvgNanos: avg(b.WriteTotalNanos.Load(), b.WriteCount.Load()),
		ReadCount:     b.ReadCount.Load(),
		ReadErrors:    b.ReadErrors.Load(),
		ReadBytes:     b.ReadBytes.Load(),
		ReadAvgNanos:  avg(b.ReadTotalNanos.Load(), b.ReadCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	WriteCount    int64
	WriteErrors   int64
	WriteBytes    int64
	WriteAvgNanos int64
	ReadCount     int64
	ReadErrors    int64
	ReadBytes     int64
	ReadAvgNanos  int64
}
