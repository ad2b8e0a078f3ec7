package httptransport

import (
	"time"

	"fraudshield/internal/domain"
)

// DecisionRequest is the wire form of a transaction submission.
type DecisionRequest struct {
	Ref               string    `json:"ref"`
	PayerRef          string    `json:"payer_ref"`
	PayeeRef          string    `json:"payee_ref"`
	Amount            float64   `json:"amount"`
	At                time.Time `json:"at"`
	Channel           string    `json:"channel"`
	BeneficiaryAgeMin int       `json:"beneficiary_age_min"`
	DeviceChanged     bool      `json:"device_changed"`
	LocationVelocity  int       `json:"location_velocity"`
	FailedAuth24h     int       `json:"failed_auth_24h"`
}

func (r DecisionRequest) toDomain() domain.Transaction {
	return domain.Transaction{
		Ref:               r.Ref,
		PayerRef:          r.PayerRef,
		PayeeRef:          r.PayeeRef,
		Amount:            r.Amount,
		At:                r.At,
		Channel:           domain.Channel(r.Channel),
		BeneficiaryAgeMin: r.BeneficiaryAgeMin,
		DeviceChanged:     r.DeviceChanged,
		LocationVelocity:  r.LocationVelocity,
		FailedAuth24h:     r.FailedAuth24h,
	}
}

// VerdictResponse is the wire form of one policy verdict.
type VerdictResponse struct {
	RuleID   string `json:"rule_id"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
	Citation string `json:"citation,omitempty"`
}

// DecisionResponse is the wire form of an emitted decision. Raw signals and
// feature values stay inside; callers see the action, score, and reasons.
type DecisionResponse struct {
	DecisionID          string            `json:"decision_id"`
	TransactionRef      string            `json:"transaction_ref"`
	Action              string            `json:"action"`
	RiskScore           float64           `json:"risk_score"`
	ReasonCodes         []string          `json:"reason_codes,omitempty"`
	Verdicts            []VerdictResponse `json:"verdicts,omitempty"`
	RuleSetVersion      string            `json:"rule_set_version"`
	DecidedAt           time.Time         `json:"decided_at"`
	LatencyMS           int64             `json:"latency_ms"`
	ExplanationRequired bool              `json:"explanation_required"`
}

func fromDecision(rec domain.DecisionRecord) DecisionResponse {
	resp := DecisionResponse{
		DecisionID:          rec.ID,
		TransactionRef:      rec.TransactionRef,
		Action:              string(rec.Action),
		RiskScore:           rec.RiskScore,
		ReasonCodes:         rec.ReasonCodes,
		RuleSetVersion:      rec.RuleSetVersion,
		DecidedAt:           rec.DecidedAt,
		LatencyMS:           rec.Latency.Milliseconds(),
		ExplanationRequired: rec.ExplanationRequired,
	}
	for _, v := range rec.Verdicts {
		resp.Verdicts = append(resp.Verdicts, VerdictResponse{
			RuleID:   v.RuleID,
			Outcome:  string(v.Outcome),
			Reason:   v.Reason,
			Citation: v.Citation,
		})
	}
	return resp
}

// QueueResponse lists decided transactions for analyst review.
type QueueResponse struct {
	Decisions []DecisionResponse `json:"decisions"`
}

// ExplanationResponse is the wire form of a stored explanation.
type ExplanationResponse struct {
	TransactionRef string    `json:"transaction_ref"`
	Trigger        string    `json:"trigger"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// AnalystActionRequest records one review outcome.
type AnalystActionRequest struct {
	TransactionRef string `json:"transaction_ref"`
	Type           string `json:"type"`
	Notes          string `json:"notes,omitempty"`
}

// AnalystActionResponse echoes the stored action.
type AnalystActionResponse struct {
	ID             string    `json:"id"`
	TransactionRef string    `json:"transaction_ref"`
	DecisionID     string    `json:"decision_id"`
	AnalystID      string    `json:"analyst_id"`
	Type           string    `json:"type"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
