package domain

import "time"

// Action is the final verdict on a transaction.
type Action string

const (
	ActionAllow     Action = "ALLOW"
	ActionChallenge Action = "CHALLENGE"
	ActionSoftBlock Action = "SOFT_BLOCK"
	ActionHardBlock Action = "HARD_BLOCK"
)

// Severity orders actions; fusion picks the maximum of the policy-derived and
// score-derived actions.
func (a Action) Severity() int {
	switch a {
	case ActionHardBlock:
		return 3
	case ActionSoftBlock:
		return 2
	case ActionChallenge:
		return 1
	default:
		return 0
	}
}

// MaxAction returns the stricter of two actions.
func MaxAction(a, b Action) Action {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// DecisionRecord is the fusion result, created exactly once per transaction
// and immutable once emitted. It is the unit handed to audit and, when an
// explanation is required, to sanitization.
type DecisionRecord struct {
	ID             string // decision identifier, distinct from TransactionRef
	TransactionRef string
	Action         Action
	RiskScore      float64 // fused score in [0,1]
	Signals        []RiskSignal
	Verdicts       []PolicyVerdict
	ReasonCodes    []string // ordered: policy reasons first, then fault codes
	FeatureHash    string   // SHA-256 of the feature vector, never raw features
	RuleSetVersion string
	ConfigVersion  uint64
	DecidedAt      time.Time
	Latency        time.Duration
	ExplanationRequired bool
}

// PrimaryReason returns the leading reason code, or a neutral default.
func (d DecisionRecord) PrimaryReason() string {
	if len(d.ReasonCodes) > 0 {
		return d.ReasonCodes[0]
	}
	return "NO_SIGNIFICANT_RISK"
}
