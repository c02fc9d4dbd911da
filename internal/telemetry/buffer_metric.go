package internaltelemetry

import (
	"go.opentelemetry.io/otel/metric"
)

// BufferPoolMetrics holds all the metric instruments for the buffer pool.
type BufferPoolMetrics struct {
	HitsCounter         metric.Int64Counter
	MissesCounter       metric.Int64Counter
	EvictionsCounter    metric.Int64Counter
	FlushesCounter      metric.Int64Counter
	PinnedUpDownCounter metric.Int64UpDownCounter
}

// NewBufferPoolMetrics creates and registers all the metrics for the buffer pool.
func NewBufferPoolMetrics(meter metric.Meter) (*BufferPoolMetrics, error) {
	hitsCounter, err := meter.Int64Counter(
		"burrowdb.buffer.hits_total",
		metric.WithDescription("Total number of page table hits."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	missesCounter, err := meter.Int64Counter(
		"burrowdb.buffer.misses_total",
		metric.WithDescription("Total number of page table misses."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	evictionsCounter, err := meter.Int64Counter(
		"burrowdb.buffer.evictions_total",
		metric.WithDescription("Total number of frames evicted by the replacer."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	flushesCounter, err := meter.Int64Counter(
		"burrowdb.buffer.flushes_total",
		metric.WithDescription("Total number of pages written back to disk."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	pinnedUpDownCounter, err := meter.Int64UpDownCounter(
		"burrowdb.buffer.pinned_pages",
		metric.WithDescription("Number of currently pinned pages."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &BufferPoolMetrics{
		HitsCounter:         hitsCounter,
		MissesCounter:       missesCounter,
		EvictionsCounter:    evictionsCounter,
		FlushesCounter:      flushesCounter,
		PinnedUpDownCounter: pinnedUpDownCounter,
	}, nil
}
