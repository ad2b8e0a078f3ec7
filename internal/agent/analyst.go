package agent

import (
	"context"
	"fmt"
	"strings"

	"fraudshield/internal/knowledge"
	"fraudshield/internal/sanitize"
)

// AnalystAssistAgent turns a sanitized context into a review checklist for
// the analyst queue. Output is structured text, not a verdict: analysts act
// on it, the system never does.
type AnalystAssistAgent struct{}

func NewAnalystAssistAgent() *AnalystAssistAgent { return &AnalystAssistAgent{} }

func (a *AnalystAssistAgent) ID() string { return "analyst-assist" }

// checklists maps reason categories to the review steps relevant for them.
var checklists = map[string][]string{
	"new_beneficiary_velocity": {
		"confirm beneficiary addition was customer-initiated",
		"check for social-engineering contact preceding the addition",
		"verify amount against the payer's established transfer pattern",
	},
	"qr_channel_limit": {
		"verify the QR origin (merchant vs. ad-hoc counterparty)",
		"check for prior transactions to the same payee",
	},
	"velocity_limit": {
		"review the payer's last 24h of transfers for automation patterns",
		"check for concurrent sessions or device changes",
	},
	"authentication_failures": {
		"review the authentication failure timeline",
		"confirm the successful authentication used a trusted device",
	},
	"temporal_anomaly": {
		"compare initiation time against the payer's usual activity window",
	},
	"model_risk": {
		"review banded signal summary; raw scores available in the secured console",
	},
	"degraded_signals": {
		"note that scoring coverage was partial; re-run scoring if the case is escalated",
	},
}

func (a *AnalystAssistAgent) Run(_ context.Context, sctx sanitize.SanitizedContext, _ []knowledge.Snippet) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Review priority: %s. Category: %s.",
		sctx.RiskBand, strings.ReplaceAll(sctx.ReasonCategory, "_", " "))

	steps := checklists[sctx.ReasonCategory]
	if len(steps) == 0 {
		steps = []string{"review the decision against the cited policy references"}
	}
	for i, step := range steps {
		fmt.Fprintf(&b, "\n%d. %s", i+1, step)
	}
	if len(sctx.PolicyCitations) > 0 {
		fmt.Fprintf(&b, "\nPolicy references: %s.", strings.Join(sctx.PolicyCitations, ", "))
	}
	return b.String(), nil
}
