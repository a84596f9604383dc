package goLink

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one store counter or histogram.
type MetricID uint16

const (
	// MetricSessionSaved counts successful Save calls.
	MetricSessionSaved MetricID = iota
	// MetricSessionDeleted counts successful Delete calls.
	MetricSessionDeleted
	// MetricSessionSaveRejected counts Save calls rejected as invalid.
	MetricSessionSaveRejected
	// MetricSessionRead counts snapshot reads (Sessions, GetSessions, GetSession, SessionIDs).
	MetricSessionRead
	// MetricPartialSessionSkipped counts identifiers dropped because their secret was absent.
	MetricPartialSessionSkipped
	// MetricCorruptValue counts stored values that failed to decode and were read as absent.
	MetricCorruptValue
	// MetricEngineFailure counts engine errors surfaced to callers.
	MetricEngineFailure
	// MetricFeedOpened counts feeds opened through the Observe methods.
	MetricFeedOpened
	// MetricFeedPush counts snapshots pushed to feed subscribers.
	MetricFeedPush
	// MetricFeedDeduplicated counts snapshots suppressed as unchanged.
	MetricFeedDeduplicated
	// MetricMutationLatency is the Save/Delete latency histogram.
	MetricMutationLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free store counters. A nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a Metrics from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments counter id.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add increments counter id by n.
func (m *Metrics) Add(id MetricID, n uint64) {
	if m == nil || !m.enabled || id >= metricIDCount || n == 0 {
		return
	}
	atomic.AddUint64(&m.counters[id].value, n)
}

// Observe records d in the histogram for id. Only MetricMutationLatency has
// a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricMutationLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters. Disabled metrics produce empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricMutationLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricMutationLatency].buckets[i])
		}
		s.Histograms[MetricMutationLatency] = buckets
	}

	return s
}

// Mutations are local-engine fast paths or a single Redis round-trip, so
// the buckets are finer than request latency buckets.
func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 100:
		return 0
	case us <= 250:
		return 1
	case us <= 500:
		return 2
	case us <= 1000:
		return 3
	case us <= 2500:
		return 4
	case us <= 5000:
		return 5
	case us <= 10000:
		return 6
	default:
		return 7
	}
}
