package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit recorder.
type Metrics struct {
	EntriesRecorded prometheus.Counter
	AppendRetries   prometheus.Counter
	QueueDepth      prometheus.Gauge
	AppendLatency   prometheus.Histogram
}

// New creates and registers all audit metrics.
func New() *Metrics {
	return &Metrics{
		EntriesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudshield_audit_entries_total",
			Help: "Audit entries durably appended",
		}),
		AppendRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudshield_audit_append_retries_total",
			Help: "Audit append attempts that failed and were retried",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fraudshield_audit_queue_depth",
			Help: "Entries waiting in the audit recorder queue",
		}),
		AppendLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraudshield_audit_append_seconds",
			Help:    "Duration of successful audit appends",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

// RecordAppend records one durable append.
func (m *Metrics) RecordAppend(d time.Duration) {
	if m != nil {
		m.EntriesRecorded.Inc()
		m.AppendLatency.Observe(d.Seconds())
	}
}

// RecordRetry records one failed append attempt.
func (m *Metrics) RecordRetry() {
	if m != nil {
		m.AppendRetries.Inc()
	}
}

// SetQueueDepth records the current recorder queue depth.
func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}
