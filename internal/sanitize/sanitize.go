// Package sanitize is the data-minimization boundary between decisioning and
// anything generative. Sanitize is the single chokepoint: no other code path
// may hand decision data to an agent or a generative collaborator. The
// projection is pure, total, and idempotent, and is built field by field
// against an explicit allow-list schema — default-deny, never
// default-allow-with-blocklist.
package sanitize

import (
	"sort"
	"strings"

	"fraudshield/internal/domain"
)

// SanitizedContext is the minimized projection of a decision. Its fields are
// exactly the schema allow-list; it carries no amounts, no account or device
// references, no raw scores, and no free text from the transaction.
type SanitizedContext struct {
	SchemaVersion   string   `json:"schema_version"`
	Action          string   `json:"action"`
	ReasonCategory  string   `json:"reason_category"`
	PolicyCitations []string `json:"policy_citations"`
	RiskBand        string   `json:"risk_band"`
	SignalQuality   string   `json:"signal_quality"`
}

// Input size caps. A record outside these bounds is treated as malformed and
// projected to the minimal context rather than partially redacted.
const (
	maxVerdicts    = 64
	maxReasonCodes = 64
)

// Sanitizer projects DecisionRecords with a pinned schema version.
type Sanitizer struct {
	hardThreshold      float64
	challengeThreshold float64
}

// New returns a Sanitizer using the given score band boundaries. The
// boundaries come from the same configuration snapshot as the decision so
// bands and actions always agree.
func New(challengeThreshold, hardThreshold float64) *Sanitizer {
	return &Sanitizer{challengeThreshold: challengeThreshold, hardThreshold: hardThreshold}
}

// Sanitize projects a DecisionRecord into the approved context shape. Total:
// any input, including adversarial records, yields a valid context. A
// malformed or oversized record yields the minimal context (action plus a
// generic reason), never a partial leak.
func (s *Sanitizer) Sanitize(rec domain.DecisionRecord) SanitizedContext {
	action := actionField(rec.Action)
	if len(rec.Verdicts) > maxVerdicts || len(rec.ReasonCodes) > maxReasonCodes {
		return minimalContext(action)
	}

	return SanitizedContext{
		SchemaVersion:   SchemaV1,
		Action:          action,
		ReasonCategory:  categoryOf(rec.PrimaryReason()),
		PolicyCitations: citations(rec.Verdicts),
		RiskBand:        s.band(rec.RiskScore),
		SignalQuality:   signalQuality(rec.Signals),
	}
}

// Resanitize re-applies the allow-list to an already-sanitized-shaped input.
// Idempotent: Resanitize(Resanitize(c)) == Resanitize(c), and for any record
// r, Resanitize(Sanitize(r)) == Sanitize(r).
func (s *Sanitizer) Resanitize(c SanitizedContext) SanitizedContext {
	out := SanitizedContext{
		SchemaVersion:   SchemaV1,
		Action:          actionField(domain.Action(c.Action)),
		ReasonCategory:  GenericReason,
		PolicyCitations: validCitations(c.PolicyCitations),
		RiskBand:        BandLow,
		SignalQuality:   QualityAbsent,
	}
	if knownCategory(c.ReasonCategory) {
		out.ReasonCategory = c.ReasonCategory
	}
	switch c.RiskBand {
	case BandLow, BandElevated, BandHigh:
		out.RiskBand = c.RiskBand
	}
	switch c.SignalQuality {
	case QualityComplete, QualityPartial, QualityAbsent:
		out.SignalQuality = c.SignalQuality
	}
	return out
}

// QueryTerms derives retrieval query terms from the context alone. Retrieval
// against the knowledge collaborator must never see transaction text, so the
// terms come from the coarse category and band only.
func (c SanitizedContext) QueryTerms() []string {
	terms := strings.Split(c.ReasonCategory, "_")
	if c.RiskBand == BandHigh || c.RiskBand == BandElevated {
		terms = append(terms, c.RiskBand, "risk")
	}
	out := terms[:0]
	for _, t := range terms {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func minimalContext(action string) SanitizedContext {
	return SanitizedContext{
		SchemaVersion:   SchemaV1,
		Action:          action,
		ReasonCategory:  GenericReason,
		PolicyCitations: []string{},
		RiskBand:        BandLow,
		SignalQuality:   QualityAbsent,
	}
}

func actionField(a domain.Action) string {
	switch a {
	case domain.ActionAllow, domain.ActionChallenge, domain.ActionSoftBlock, domain.ActionHardBlock:
		return string(a)
	default:
		// Unknown action values degrade to the strictest label rather than
		// leaking arbitrary strings through the boundary.
		return string(domain.ActionHardBlock)
	}
}

func (s *Sanitizer) band(score float64) string {
	switch {
	case score >= s.hardThreshold:
		return BandHigh
	case score >= s.challengeThreshold:
		return BandElevated
	default:
		return BandLow
	}
}

func signalQuality(signals []domain.RiskSignal) string {
	if len(signals) == 0 {
		return QualityAbsent
	}
	usable := 0
	for _, sig := range signals {
		if sig.Usable() {
			usable++
		}
	}
	switch usable {
	case len(signals):
		return QualityComplete
	case 0:
		return QualityAbsent
	default:
		return QualityPartial
	}
}

// citations keeps only verdict citation keys that look like approved
// citation identifiers: uppercase alphanumerics and dashes. Sorted and
// deduplicated so output is canonical.
func citations(verdicts []domain.PolicyVerdict) []string {
	set := make(map[string]struct{}, len(verdicts))
	for _, v := range verdicts {
		if validCitation(v.Citation) {
			set[v.Citation] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func validCitations(in []string) []string {
	set := make(map[string]struct{}, len(in))
	for _, c := range in {
		if validCitation(c) {
			set[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func validCitation(c string) bool {
	if c == "" || len(c) > 32 {
		return false
	}
	for _, r := range c {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
