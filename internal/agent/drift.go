package agent

import (
	"context"
	"fmt"

	"fraudshield/internal/agent/metrics"
	"fraudshield/internal/knowledge"
	"fraudshield/internal/sanitize"
)

// DriftMonitorAgent tracks the distribution of risk bands and signal quality
// over explained decisions. A shifting band distribution is the first
// operational hint that model calibration has drifted from the thresholds in
// force.
type DriftMonitorAgent struct {
	metrics *metrics.Metrics
}

func NewDriftMonitorAgent(m *metrics.Metrics) *DriftMonitorAgent {
	return &DriftMonitorAgent{metrics: m}
}

func (a *DriftMonitorAgent) ID() string { return "drift-monitor" }

func (a *DriftMonitorAgent) Run(_ context.Context, sctx sanitize.SanitizedContext, _ []knowledge.Snippet) (string, error) {
	a.metrics.ObserveDrift(sctx.RiskBand, sctx.SignalQuality, sctx.ReasonCategory)
	return fmt.Sprintf("observed band=%s quality=%s category=%s",
		sctx.RiskBand, sctx.SignalQuality, sctx.ReasonCategory), nil
}
