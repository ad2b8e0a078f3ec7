package domain

import "time"

// ExplanationTrigger records who asked for an explanation.
type ExplanationTrigger string

const (
	TriggerSystem  ExplanationTrigger = "SYSTEM"
	TriggerAnalyst ExplanationTrigger = "ANALYST"
)

// Explanation is the stored result of one explanation run: the
// regulator-facing text plus the per-agent outcomes that produced it.
// Generated after the decision is emitted, never on the decision path.
type Explanation struct {
	DecisionID     string
	TransactionRef string
	Trigger        ExplanationTrigger
	Text           string
	Agents         []AgentResult
	CreatedAt      time.Time
}
