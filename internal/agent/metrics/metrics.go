package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the agent coordinator.
type Metrics struct {
	AgentDuration *prometheus.HistogramVec
	AgentOutcomes *prometheus.CounterVec
	DriftObserved *prometheus.CounterVec
}

// New creates and registers all agent metrics.
func New() *Metrics {
	return &Metrics{
		AgentDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraudshield_agent_duration_seconds",
			Help:    "Duration of agent invocations by agent",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"agent"}),

		AgentOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_agent_outcomes_total",
			Help: "Agent invocation outcomes by agent and status",
		}, []string{"agent", "status"}),

		DriftObserved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_drift_observations_total",
			Help: "Risk band and signal quality distribution over explained decisions",
		}, []string{"band", "quality", "category"}),
	}
}

// ObserveAgent records one agent invocation.
func (m *Metrics) ObserveAgent(agent, status string, d time.Duration) {
	if m != nil {
		m.AgentDuration.WithLabelValues(agent).Observe(d.Seconds())
		m.AgentOutcomes.WithLabelValues(agent, status).Inc()
	}
}

// ObserveDrift records one drift observation.
func (m *Metrics) ObserveDrift(band, quality, category string) {
	if m != nil {
		m.DriftObserved.WithLabelValues(band, quality, category).Inc()
	}
}
