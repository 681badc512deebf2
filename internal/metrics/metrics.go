package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID indexes one engine counter or histogram.
type MetricID uint16

const (
	// MetricEvaluateAllowed counts evaluations that let the action proceed.
	MetricEvaluateAllowed MetricID = iota
	// MetricEvaluateDenied counts evaluations that denied the action.
	MetricEvaluateDenied
	// MetricDenySourceBlocked counts denials from the reputation block.
	MetricDenySourceBlocked
	// MetricDenyAccountLocked counts denials from an active lockout.
	MetricDenyAccountLocked
	// MetricDenyRateLimited counts denials from window exhaustion.
	MetricDenyRateLimited
	// MetricReportSuccess counts reported successful outcomes.
	MetricReportSuccess
	// MetricReportFailure counts reported failed outcomes.
	MetricReportFailure
	// MetricLockoutTriggered counts lock applications and extensions.
	MetricLockoutTriggered
	// MetricLockoutCleared counts lockout records cleared by success.
	MetricLockoutCleared
	// MetricSourceBlockTriggered counts block applications and extensions.
	MetricSourceBlockTriggered
	// MetricReputationPenalty counts reputation penalties applied.
	MetricReputationPenalty
	// MetricDegradedMode counts calls served under the degraded policy.
	MetricDegradedMode
	// MetricBackendUnavailable counts backend failures after retry.
	MetricBackendUnavailable
	// MetricInvalidInput counts requests rejected at the boundary.
	MetricInvalidInput
	// MetricEventLogFailure counts event appends that could not complete.
	MetricEventLogFailure
	// MetricEvaluateLatency is the evaluate-path latency histogram.
	MetricEvaluateLatency
	// MetricReportLatency is the report-path latency histogram.
	MetricReportLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type histogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config controls which instrument families are recorded.
type Config struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Metrics is the engine's in-process instrument registry. Counters live in
// cache-line-padded slots and every write is a single atomic add.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]histogram
}

// Snapshot is a point-in-time copy of all recorded values.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// New builds a registry; a disabled one ignores all writes.
func New(cfg Config) *Metrics {
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

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the id's histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricEvaluateLatency && id != MetricReportLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// SnapshotNow copies every counter and, when recorded, both latency
// histograms.
func (m *Metrics) SnapshotNow() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range []MetricID{MetricEvaluateLatency, MetricReportLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
