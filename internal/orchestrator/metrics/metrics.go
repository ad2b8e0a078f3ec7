package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision orchestrator.
type Metrics struct {
	DecisionLatency *prometheus.HistogramVec
	DecisionsTotal  *prometheus.CounterVec
	BudgetExceeded  prometheus.Counter
	InFlightJoins   prometheus.Counter
	Explanations    *prometheus.CounterVec
}

// New creates and registers all orchestrator metrics.
func New() *Metrics {
	return &Metrics{
		DecisionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraudshield_decision_latency_seconds",
			Help:    "End-to-end latency of the real-time decision path",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 1},
		}, []string{"action"}),

		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_decisions_total",
			Help: "Decisions by final action and degradation",
		}, []string{"action", "degraded"}),

		BudgetExceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudshield_decision_budget_exceeded_total",
			Help: "Decisions that hit the total latency budget",
		}),

		InFlightJoins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudshield_decision_inflight_joins_total",
			Help: "Submissions that joined an in-flight decision for the same transaction",
		}),

		Explanations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudshield_explanations_total",
			Help: "Explanation runs by trigger and outcome",
		}, []string{"trigger", "outcome"}),
	}
}

// RecordDecision records one emitted decision.
func (m *Metrics) RecordDecision(action string, degraded bool, latency time.Duration) {
	if m != nil {
		m.DecisionLatency.WithLabelValues(action).Observe(latency.Seconds())
		m.DecisionsTotal.WithLabelValues(action, boolLabel(degraded)).Inc()
	}
}

// RecordBudgetExceeded records a decision that ran out of budget.
func (m *Metrics) RecordBudgetExceeded() {
	if m != nil {
		m.BudgetExceeded.Inc()
	}
}

// RecordInFlightJoin records a deduplicated concurrent submission.
func (m *Metrics) RecordInFlightJoin() {
	if m != nil {
		m.InFlightJoins.Inc()
	}
}

// RecordExplanation records one explanation run.
func (m *Metrics) RecordExplanation(trigger, outcome string) {
	if m != nil {
		m.Explanations.WithLabelValues(trigger, outcome).Inc()
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
