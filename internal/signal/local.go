package signal

import (
	"context"
	"math"

	"fraudshield/internal/features"
)

// Local scorers approximate the bundled models for deployments without
// remote scoring collaborators. They are deterministic functions of the
// feature vector, tuned to the same calibration as the fusion thresholds.

// LocalEnsembleScorer mimics the supervised ensemble: a logistic combination
// of the fraud-correlated features.
type LocalEnsembleScorer struct{}

func NewLocalEnsembleScorer() *LocalEnsembleScorer { return &LocalEnsembleScorer{} }

func (s *LocalEnsembleScorer) Score(_ context.Context, vec features.Vector) (RawScore, error) {
	z := -3.2
	z += 0.35 * math.Log1p(vec[features.IdxAmount]/1000)
	z += 0.9 * vec[features.IdxIsQR]
	z += 1.1 * vec[features.IdxDeviceChanged]
	z += 0.5 * vec[features.IdxLocationVelocity]
	z += 0.6 * vec[features.IdxFailedAuth24h]
	z += 1.6 * vec[features.IdxBeneficiaryIsNew]
	z += 0.7 * vec[features.IdxIsNight]
	z += 0.08 * vec[features.IdxTxnVelocity24h]
	return RawScore{Score: sigmoid(z), Confidence: 0.8}, nil
}

// LocalAnomalyScorer mimics the anomaly detector: deviation from the payer's
// own baseline rather than population-level fraud patterns.
type LocalAnomalyScorer struct{}

func NewLocalAnomalyScorer() *LocalAnomalyScorer { return &LocalAnomalyScorer{} }

func (s *LocalAnomalyScorer) Score(_ context.Context, vec features.Vector) (RawScore, error) {
	z := -2.4
	z += 0.8 * math.Abs(vec[features.IdxAmountZScore])
	z += 0.9 * vec[features.IdxDeviceChanged]
	z += 0.7 * vec[features.IdxLocationVelocity]
	z += 0.6 * vec[features.IdxIsNight]
	z += 0.05 * vec[features.IdxTxnVelocity24h]
	return RawScore{Score: sigmoid(z), Confidence: 0.7}, nil
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }
