package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"

	"fraudshield/internal/domain"
	"fraudshield/pkg/faults"
)

// Entry is one immutable audit record. Entries form a hash chain: each entry
// hashes its own content together with the hash of its predecessor, so any
// mutation or deletion inside the chain is detectable by recomputation.
type Entry struct {
	Sequence       uint64    `json:"sequence"`
	DecisionID     string    `json:"decision_id"`
	TransactionRef string    `json:"transaction_ref"`
	Action         string    `json:"action"`
	RiskScore      float64   `json:"risk_score"`
	ReasonCodes    []string  `json:"reason_codes,omitempty"`
	FeatureHash    string    `json:"feature_hash"`
	RuleSetVersion string    `json:"rule_set_version"`
	ConfigVersion  uint64    `json:"config_version"`
	Signals        []Signal  `json:"signals,omitempty"`
	Verdicts       []Verdict `json:"verdicts,omitempty"`
	Agents         []Agent   `json:"agents,omitempty"`
	DecidedAt      time.Time `json:"decided_at"`
	LatencyMS      int64     `json:"latency_ms"`
	RecordedAt     time.Time `json:"recorded_at"`
	PrevHash       string    `json:"prev_hash"`
	EntryHash      string    `json:"entry_hash"`
}

// Signal is the audited summary of one risk signal.
type Signal struct {
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Missing    bool    `json:"missing,omitempty"`
	FaultCode  string  `json:"fault_code,omitempty"`
}

// Verdict is the audited summary of one policy rule outcome.
type Verdict struct {
	RuleID   string `json:"rule_id"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
	Citation string `json:"citation,omitempty"`
}

// Agent is the audited summary of one agent invocation. Output text is not
// audited, only that the invocation happened and how it ended.
type Agent struct {
	AgentID    string `json:"agent_id"`
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
}

// GenesisHash anchors the chain before the first entry.
const GenesisHash = "genesis"

// FromDecision builds the audit entry for a decision and its agent results.
// Sequence and chain hashes are assigned by the Recorder at append time.
func FromDecision(rec domain.DecisionRecord, agents []domain.AgentResult) Entry {
	e := Entry{
		DecisionID:     rec.ID,
		TransactionRef: rec.TransactionRef,
		Action:         string(rec.Action),
		RiskScore:      rec.RiskScore,
		ReasonCodes:    rec.ReasonCodes,
		FeatureHash:    rec.FeatureHash,
		RuleSetVersion: rec.RuleSetVersion,
		ConfigVersion:  rec.ConfigVersion,
		DecidedAt:      rec.DecidedAt,
		LatencyMS:      rec.Latency.Milliseconds(),
	}
	for _, s := range rec.Signals {
		e.Signals = append(e.Signals, Signal{
			Source:     string(s.Source),
			Score:      s.Score,
			Confidence: s.Confidence,
			Missing:    s.Missing,
			FaultCode:  s.FaultCode,
		})
	}
	for _, v := range rec.Verdicts {
		e.Verdicts = append(e.Verdicts, Verdict{
			RuleID:   v.RuleID,
			Outcome:  string(v.Outcome),
			Reason:   v.Reason,
			Citation: v.Citation,
		})
	}
	for _, a := range agents {
		e.Agents = append(e.Agents, Agent{
			AgentID:    a.AgentID,
			Status:     string(a.Status),
			DurationMS: a.Duration.Milliseconds(),
		})
	}
	return e
}

// Hash computes the chain hash of the entry over its canonical JSON form,
// excluding EntryHash itself. Canonicalization (RFC 8785) makes the hash
// independent of field ordering and encoder quirks.
func (e Entry) Hash() (string, error) {
	clone := e
	clone.EntryHash = ""
	raw, err := json.Marshal(clone)
	if err != nil {
		return "", fmt.Errorf("marshal audit entry: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize audit entry: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the hash chain over entries ordered by sequence and
// reports the first break it finds.
func Verify(entries []Entry) error {
	prev := GenesisHash
	for i, e := range entries {
		if e.PrevHash != prev {
			return faults.Newf(faults.CodeAuditWriteFailed,
				"audit chain broken at sequence %d: prev hash mismatch", e.Sequence)
		}
		want, err := e.Hash()
		if err != nil {
			return err
		}
		if e.EntryHash != want {
			return faults.Newf(faults.CodeAuditWriteFailed,
				"audit chain broken at sequence %d: entry hash mismatch", e.Sequence)
		}
		if i > 0 && e.Sequence != entries[i-1].Sequence+1 {
			return faults.Newf(faults.CodeAuditWriteFailed,
				"audit chain has a gap before sequence %d", e.Sequence)
		}
		prev = e.EntryHash
	}
	return nil
}
