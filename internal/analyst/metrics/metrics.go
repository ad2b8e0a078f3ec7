package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for analyst review activity.
type Metrics struct {
	ActionsTotal *prometheus.CounterVec
}

// New creates and registers all analyst metrics.
func New() *Metrics {
	return &Metrics{
		ActionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_analyst_actions_total",
			Help: "Analyst review outcomes by type",
		}, []string{"type"}),
	}
}

// RecordAction records one review outcome.
func (m *Metrics) RecordAction(actionType string) {
	if m != nil {
		m.ActionsTotal.WithLabelValues(actionType).Inc()
	}
}
