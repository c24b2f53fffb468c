package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records a snapshot of process resources at the end of a run
type RuntimeMetrics struct {
	goroutines  metric.Int64Gauge
	heapBytes   metric.Int64Gauge
	totalAlloc  metric.Int64Gauge
	gcCount     metric.Int64Gauge
	runDuration metric.Float64Gauge
}

// RuntimeStats holds the values captured by Collect
type RuntimeStats struct {
	Goroutines int64
	HeapBytes  int64
	TotalAlloc int64
	GCCount    uint32
	Duration   time.Duration
}

// NewRuntimeMetrics creates the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goroutines, err := meter.Int64Gauge("process_goroutines",
		metric.WithDescription("Number of goroutines at the end of the run"))
	if err != nil {
		return nil, err
	}
	heap, err := meter.Int64Gauge("process_heap_bytes",
		metric.WithDescription("Live heap in bytes"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	total, err := meter.Int64Gauge("process_total_alloc_bytes",
		metric.WithDescription("Cumulative bytes allocated"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	gc, err := meter.Int64Gauge("process_gc_cycles",
		metric.WithDescription("Completed garbage collection cycles"))
	if err != nil {
		return nil, err
	}
	dur, err := meter.Float64Gauge("process_run_duration_seconds",
		metric.WithDescription("Wall time of the command"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &RuntimeMetrics{
		goroutines:  goroutines,
		heapBytes:   heap,
		totalAlloc:  total,
		gcCount:     gc,
		runDuration: dur,
	}, nil
}

// Collect reads runtime statistics and records them
func (rm *RuntimeMetrics) Collect(ctx context.Context, startTime time.Time) RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := RuntimeStats{
		Goroutines: int64(runtime.NumGoroutine()),
		HeapBytes:  int64(memStats.HeapAlloc),
		TotalAlloc: int64(memStats.TotalAlloc),
		GCCount:    memStats.NumGC,
		Duration:   time.Since(startTime),
	}

	rm.goroutines.Record(ctx, stats.Goroutines)
	rm.heapBytes.Record(ctx, stats.HeapBytes)
	rm.totalAlloc.Record(ctx, stats.TotalAlloc)
	rm.gcCount.Record(ctx, int64(stats.GCCount))
	rm.runDuration.Record(ctx, stats.Duration.Seconds())
	return stats
}
