package domain

import "time"

// AgentStatus reports how an agent invocation ended.
type AgentStatus string

const (
	AgentOK      AgentStatus = "OK"
	AgentTimeout AgentStatus = "TIMEOUT"
	AgentFailed  AgentStatus = "FAILED"
)

// AgentResult is one agent invocation's outcome. Results flow one way: they
// are aggregated by the coordinator and attached to the audit trail, never
// fed back into a SanitizedContext or a decision.
type AgentResult struct {
	AgentID  string
	Output   string // bounded text or serialized metrics
	Status   AgentStatus
	Duration time.Duration
}
