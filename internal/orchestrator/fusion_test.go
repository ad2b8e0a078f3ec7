package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fraudshield/internal/domain"
	"fraudshield/internal/platform/config"
)

func signal(source domain.SignalSource, score float64) domain.RiskSignal {
	return domain.RiskSignal{Source: source, Score: score, Confidence: 0.9}
}

func missing(source domain.SignalSource, code string) domain.RiskSignal {
	return domain.RiskSignal{Source: source, Missing: true, FaultCode: code}
}

func TestFuseWeightedScoreThresholds(t *testing.T) {
	d := config.Default().Decision

	cases := []struct {
		name     string
		ensemble float64
		anomaly  float64
		want     domain.Action
	}{
		{"clean", 0.02, 0.01, domain.ActionAllow},
		{"challenge boundary", 0.55, 0.45, domain.ActionChallenge},
		{"hard block", 0.92, 0.88, domain.ActionHardBlock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := fuse(nil,
				signal(domain.SourceEnsemble, tc.ensemble),
				signal(domain.SourceAnomaly, tc.anomaly),
				d, false)
			assert.Equal(t, tc.want, res.Action)
			assert.InDelta(t, d.EnsembleWeight*tc.ensemble+d.AnomalyWeight*tc.anomaly, res.Score, 1e-9)
			assert.False(t, res.Degraded)
		})
	}
}

func TestFusePolicyHardBlockOverridesScore(t *testing.T) {
	d := config.Default().Decision
	verdicts := []domain.PolicyVerdict{{
		RuleID:   "new_beneficiary_cooldown",
		Priority: 10,
		Outcome:  domain.OutcomeHardBlock,
		Reason:   "NEW_BENEFICIARY_HIGH_VELOCITY",
		Citation: "RBI-NB-001",
	}}

	res := fuse(verdicts,
		signal(domain.SourceEnsemble, 0.01),
		signal(domain.SourceAnomaly, 0.01),
		d, false)

	assert.Equal(t, domain.ActionHardBlock, res.Action)
	assert.Contains(t, res.ReasonCodes, "NEW_BENEFICIARY_HIGH_VELOCITY")
}

func TestFuseMissingSignalSubstitutesAvailableScore(t *testing.T) {
	d := config.Default().Decision

	res := fuse(nil,
		signal(domain.SourceEnsemble, 0.55),
		missing(domain.SourceAnomaly, "SIGNAL_TIMEOUT"),
		d, false)

	assert.Equal(t, domain.ActionChallenge, res.Action)
	assert.InDelta(t, 0.55, res.Score, 1e-9)
	assert.Contains(t, res.ReasonCodes, "SIGNAL_TIMEOUT")
	assert.True(t, res.Degraded)
}

func TestFuseBothSignalsMissingFloorsAtChallenge(t *testing.T) {
	d := config.Default().Decision

	res := fuse(nil,
		missing(domain.SourceEnsemble, "SIGNAL_UNAVAILABLE"),
		missing(domain.SourceAnomaly, "SIGNAL_TIMEOUT"),
		d, false)

	assert.Equal(t, domain.ActionChallenge, res.Action)
	assert.Contains(t, res.ReasonCodes, "SIGNAL_UNAVAILABLE")
	assert.Contains(t, res.ReasonCodes, "SIGNAL_TIMEOUT")
	assert.True(t, res.Degraded)
}

func TestFuseBudgetExceededFloorsAtSoftBlock(t *testing.T) {
	d := config.Default().Decision

	res := fuse(nil,
		signal(domain.SourceEnsemble, 0.02),
		signal(domain.SourceAnomaly, 0.01),
		d, true)

	assert.Equal(t, domain.ActionSoftBlock, res.Action)
	assert.Contains(t, res.ReasonCodes, "BUDGET_EXCEEDED")
	assert.True(t, res.Degraded)
}

func TestFuseSoftBlockPolicyBeatsChallengeScore(t *testing.T) {
	d := config.Default().Decision
	verdicts := []domain.PolicyVerdict{{
		RuleID:   "qr_scrutiny_tier1",
		Priority: 30,
		Outcome:  domain.OutcomeSoftBlock,
		Reason:   "QR_CHANNEL_TIER1_LIMIT",
	}}

	res := fuse(verdicts,
		signal(domain.SourceEnsemble, 0.6),
		signal(domain.SourceAnomaly, 0.5),
		d, false)

	assert.Equal(t, domain.ActionSoftBlock, res.Action)
	assert.Contains(t, res.ReasonCodes, "QR_CHANNEL_TIER1_LIMIT")
	assert.Contains(t, res.ReasonCodes, "ELEVATED_RISK_SCORE")
}

func TestFuseReasonCodesAreDeduplicated(t *testing.T) {
	d := config.Default().Decision
	verdicts := []domain.PolicyVerdict{
		{RuleID: "a", Outcome: domain.OutcomeSoftBlock, Reason: "VELOCITY_LIMIT_EXCEEDED"},
		{RuleID: "b", Outcome: domain.OutcomeSoftBlock, Reason: "VELOCITY_LIMIT_EXCEEDED"},
	}

	res := fuse(verdicts,
		signal(domain.SourceEnsemble, 0.1),
		signal(domain.SourceAnomaly, 0.1),
		d, false)

	count := 0
	for _, r := range res.ReasonCodes {
		if r == "VELOCITY_LIMIT_EXCEEDED" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
