package domain

import (
	"time"

	"fraudshield/pkg/faults"
)

// AnalystActionType is the disposition an analyst records on a decision.
type AnalystActionType string

const (
	ActionConfirmFraud  AnalystActionType = "CONFIRM_FRAUD"
	ActionFalsePositive AnalystActionType = "FALSE_POSITIVE"
	ActionEscalate      AnalystActionType = "ESCALATE"
)

// AnalystAction is one review outcome from the analyst queue. ESCALATE
// additionally requests a fresh explanation run for the decision.
type AnalystAction struct {
	ID             string
	TransactionRef string
	DecisionID     string
	AnalystID      string
	Type           AnalystActionType
	Notes          string
	CreatedAt      time.Time
}

func (a AnalystAction) Validate() error {
	if a.TransactionRef == "" {
		return faults.New(faults.CodeInvalidInput, "transaction_ref is required")
	}
	switch a.Type {
	case ActionConfirmFraud, ActionFalsePositive, ActionEscalate:
	default:
		return faults.Newf(faults.CodeInvalidInput, "unknown analyst action type %q", a.Type)
	}
	if len(a.Notes) > 4096 {
		return faults.New(faults.CodeInvalidInput, "notes exceed 4096 bytes")
	}
	return nil
}
