package domain

// Outcome is a single rule's verdict. Severity ordering, not insertion order,
// decides the combined result: HARD_BLOCK > SOFT_BLOCK > PASS.
type Outcome string

const (
	OutcomePass      Outcome = "PASS"
	OutcomeSoftBlock Outcome = "SOFT_BLOCK"
	OutcomeHardBlock Outcome = "HARD_BLOCK"
)

// Severity orders outcomes by permissiveness; higher is stricter.
func (o Outcome) Severity() int {
	switch o {
	case OutcomeHardBlock:
		return 2
	case OutcomeSoftBlock:
		return 1
	default:
		return 0
	}
}

// PolicyVerdict is one matched rule's result. Multiple verdicts may exist per
// transaction; the engine combines them worst-outcome-wins with rule priority
// as the deterministic tie-break.
type PolicyVerdict struct {
	RuleID    string
	Priority  int // lower value wins ties among equal severities
	Outcome   Outcome
	Reason    string // reason code, e.g. NEW_BENEFICIARY_HIGH_VELOCITY
	Citation  string // regulator citation key, e.g. RBI-NB-001
	Threshold string // human-readable threshold context
}
