package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates completion call counters in process. It backs the stats
// surfaced in logs; there is no external metrics pipeline.
type Metrics struct {
	mu sync.Mutex

	completionTotal  atomic.Int64
	completionFailed atomic.Int64
	quotaRejected    atomic.Int64

	// Rolling window of recent completion latencies.
	durations    []time.Duration
	maxDurations int
}

// NewMetrics creates a metrics collector keeping at most maxDurations samples.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordCompletion records one completion attempt and its latency.
func (m *Metrics) RecordCompletion(duration time.Duration, failed bool) {
	m.completionTotal.Add(1)
	if failed {
		m.completionFailed.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.durations) >= m.maxDurations {
		copy(m.durations, m.durations[1:])
		m.durations = m.durations[:len(m.durations)-1]
	}
	m.durations = append(m.durations, duration)
}

// RecordQuotaRejection records a completion turned away by the provider quota.
func (m *Metrics) RecordQuotaRejection() {
	m.quotaRejected.Add(1)
}

// Snapshot is a point-in-time view of the collected counters.
type Snapshot struct {
	CompletionTotal  int64
	CompletionFailed int64
	QuotaRejected    int64
	AvgLatency       time.Duration
}

// Snapshot returns the current counter values and mean latency.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg time.Duration
	if len(m.durations) > 0 {
		var total time.Duration
		for _, d := range m.durations {
			total += d
		}
		avg = total / time.Duration(len(m.durations))
	}
	return Snapshot{
		CompletionTotal:  m.completionTotal.Load(),
		CompletionFailed: m.completionFailed.Load(),
		QuotaRejected:    m.quotaRejected.Load(),
		AvgLatency:       avg,
	}
}
