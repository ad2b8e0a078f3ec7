package orchestrator

import (
	"fraudshield/internal/domain"
	"fraudshield/internal/platform/config"
	"fraudshield/internal/policy"
	"fraudshield/pkg/faults"
)

// Score-derived reason codes. Policy verdicts carry their own reasons; these
// name what the fused score contributed.
const (
	reasonHighRiskScore     = "HIGH_RISK_SCORE"
	reasonElevatedRiskScore = "ELEVATED_RISK_SCORE"
)

// fusionResult is the outcome of the FUSING stage.
type fusionResult struct {
	Action      domain.Action
	Score       float64
	ReasonCodes []string
	Degraded    bool
}

// fuse combines the worst policy verdict with the fused risk score. The table
// is deterministic and fails conservative:
//
//   - a HARD_BLOCK policy verdict always wins, regardless of score
//   - otherwise fused = ensembleWeight*ensemble + anomalyWeight*anomaly;
//     fused >= hard threshold gives HARD_BLOCK, >= challenge threshold gives
//     CHALLENGE
//   - one missing signal substitutes the available score at full weight; both
//     missing floors the outcome at CHALLENGE
//   - a budget overrun floors the outcome at SOFT_BLOCK
//   - the final action is the stricter of the policy-derived and
//     score-derived actions
func fuse(verdicts []domain.PolicyVerdict, ensemble, anomaly domain.RiskSignal, d config.Decision, budgetExceeded bool) fusionResult {
	var reasons []string
	degraded := false

	policyAction := domain.ActionAllow
	for _, v := range verdicts {
		if v.Outcome == domain.OutcomePass {
			continue
		}
		reasons = append(reasons, v.Reason)
		if v.Reason == string(faults.CodePolicyInputInvalid) {
			degraded = true
		}
	}
	if worst, ok := policy.Worst(verdicts); ok {
		switch worst.Outcome {
		case domain.OutcomeHardBlock:
			policyAction = domain.ActionHardBlock
		case domain.OutcomeSoftBlock:
			policyAction = domain.ActionSoftBlock
		}
	}

	score, scoreAction, faultCodes := scoreDecision(ensemble, anomaly, d)
	if len(faultCodes) > 0 {
		degraded = true
	}
	switch scoreAction {
	case domain.ActionHardBlock:
		reasons = append(reasons, reasonHighRiskScore)
	case domain.ActionChallenge:
		if score >= d.ChallengeThreshold {
			reasons = append(reasons, reasonElevatedRiskScore)
		}
	}
	reasons = append(reasons, faultCodes...)

	final := domain.MaxAction(policyAction, scoreAction)
	if budgetExceeded {
		degraded = true
		final = domain.MaxAction(final, domain.ActionSoftBlock)
		reasons = append(reasons, string(faults.CodeBudgetExceeded))
	}

	return fusionResult{
		Action:      final,
		Score:       score,
		ReasonCodes: dedup(reasons),
		Degraded:    degraded,
	}
}

// scoreDecision computes the fused score and the action it implies on its
// own, plus the fault codes of any degraded source.
func scoreDecision(ensemble, anomaly domain.RiskSignal, d config.Decision) (float64, domain.Action, []string) {
	var faultCodes []string
	for _, s := range []domain.RiskSignal{ensemble, anomaly} {
		if s.Missing && s.FaultCode != "" {
			faultCodes = append(faultCodes, s.FaultCode)
		}
	}

	var score float64
	switch {
	case ensemble.Usable() && anomaly.Usable():
		score = d.EnsembleWeight*ensemble.Score + d.AnomalyWeight*anomaly.Score
	case ensemble.Usable():
		score = ensemble.Score
	case anomaly.Usable():
		score = anomaly.Score
	default:
		// No signal at all: CHALLENGE floor, the policy side may still
		// escalate further.
		return 0, domain.ActionChallenge, faultCodes
	}

	action := domain.ActionAllow
	switch {
	case score >= d.HardThreshold:
		action = domain.ActionHardBlock
	case score >= d.ChallengeThreshold:
		action = domain.ActionChallenge
	}
	return score, action, faultCodes
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
