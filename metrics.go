package gridpool

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    queryHistogram prometheus.Histogram
//	    retryCounter   prometheus.Counter
//	}
//
//	func (p *PrometheusCollector) RecordQuery(centers, grids, passes, consumed int, duration time.Duration, err error) {
//	    p.queryHistogram.Observe(duration.Seconds())
//	    p.retryCounter.Add(float64(passes - 1))
//	}
type MetricsCollector interface {
	// RecordQuery is called after each grid query.
	// passes is the number of gather passes run (1 = no capacity retry),
	// consumed is the accepted candidate total, err is nil if successful.
	RecordQuery(centers, grids, passes, consumed int, duration time.Duration, err error)

	// RecordCacheLookup is called after each result-cache lookup.
	RecordCacheLookup(hit bool, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordQuery(int, int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordCacheLookup(bool, time.Duration)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
	GatherPasses    atomic.Int64
	CapacityRetries atomic.Int64
	Consumed        atomic.Int64
	CacheHits       atomic.Int64
	CacheMisses     atomic.Int64
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(centers, grids, passes, consumed int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
		return
	}
	b.GatherPasses.Add(int64(passes))
	if passes > 1 {
		b.CapacityRetries.Add(int64(passes - 1))
	}
	b.Consumed.Add(int64(consumed))
}

// RecordCacheLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheLookup(hit bool, duration time.Duration) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}
