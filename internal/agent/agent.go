// Package agent runs the bounded, single-purpose agents (Explanation,
// Analyst-Assist, Drift-Monitor) against sanitized contexts. Agents never see
// a Transaction or DecisionRecord: the sanitized projection and retrieved
// knowledge snippets are their entire world. Each invocation is isolated —
// one agent's timeout or failure never blocks another's result, and agents
// cannot communicate except through the coordinator's result aggregation.
package agent

import (
	"context"

	"fraudshield/internal/knowledge"
	"fraudshield/internal/sanitize"
)

// Agent is a single capability: consume a sanitized context plus snippets,
// produce bounded text output. Implementations must honor ctx cancellation.
type Agent interface {
	ID() string
	Run(ctx context.Context, sctx sanitize.SanitizedContext, snippets []knowledge.Snippet) (string, error)
}

// Generator is the generative-explanation collaborator contract. It is
// treated as untrusted for leakage: it only ever receives sanitized input,
// and its output is scrubbed and bounded before leaving the coordinator.
type Generator interface {
	Generate(ctx context.Context, sctx sanitize.SanitizedContext, snippets []knowledge.Snippet) (string, error)
}
