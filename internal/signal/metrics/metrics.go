package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the signal adapter.
type Metrics struct {
	ScoreLatency *prometheus.HistogramVec
	SignalFaults *prometheus.CounterVec
}

// New creates and registers all signal adapter metrics.
func New() *Metrics {
	return &Metrics{
		ScoreLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraudshield_signal_score_duration_seconds",
			Help:    "Duration of scoring collaborator calls by source",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.15, 0.25, 0.5},
		}, []string{"source"}),

		SignalFaults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_signal_faults_total",
			Help: "Missing signals by source and fault code",
		}, []string{"source", "fault"}),
	}
}

// ObserveScoreLatency records the duration of one scoring call.
func (m *Metrics) ObserveScoreLatency(source string, d time.Duration) {
	if m != nil {
		m.ScoreLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementSignalFault records a missing or rejected signal.
func (m *Metrics) IncrementSignalFault(source, fault string) {
	if m != nil {
		m.SignalFaults.WithLabelValues(source, fault).Inc()
	}
}
