package domain

import "encoding/json"

// SignalSource identifies which scoring collaborator produced a risk signal.
type SignalSource string

const (
	SourceEnsemble SignalSource = "ENSEMBLE"
	SourceAnomaly  SignalSource = "ANOMALY"
)

// RiskSignal is one normalized scoring result. Produced once per scoring call
// and immutable afterwards. A timed-out or unavailable source yields a signal
// with Missing=true and Confidence=0 so fusion can degrade conservatively
// instead of stalling.
type RiskSignal struct {
	Source       SignalSource
	Score        float64 // risk in [0,1]; 0 when Missing
	Confidence   float64 // 0 when Missing
	Attributions json.RawMessage // opaque feature attribution blob, may be nil
	Missing      bool
	FaultCode    string // SIGNAL_TIMEOUT or SIGNAL_UNAVAILABLE when Missing
}

// Usable reports whether the signal carries a score fusion may rely on.
func (s RiskSignal) Usable() bool { return !s.Missing && s.Confidence > 0 }
