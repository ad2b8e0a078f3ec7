package signal

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"fraudshield/internal/domain"
	"fraudshield/internal/features"
	"fraudshield/internal/signal/metrics"
	"fraudshield/pkg/faults"
)

// Adapter fans out to the ensemble and anomaly collaborators concurrently
// and normalizes their answers. A timed-out source degrades decision quality
// but never stalls the pipeline: its signal comes back Missing with
// Confidence=0.
type Adapter struct {
	ensemble Scorer
	anomaly  Scorer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewAdapter(ensemble, anomaly Scorer, logger *slog.Logger, m *metrics.Metrics) *Adapter {
	return &Adapter{ensemble: ensemble, anomaly: anomaly, logger: logger, metrics: m}
}

// Collect scores the feature vector against both collaborators. Each call
// gets an independent timeout; Collect itself returns as soon as both calls
// have settled or their timeouts elapsed.
func (a *Adapter) Collect(ctx context.Context, vec features.Vector, timeout time.Duration) (ensemble, anomaly domain.RiskSignal) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ensemble = a.score(ctx, domain.SourceEnsemble, a.ensemble, vec, timeout)
		return nil
	})
	g.Go(func() error {
		anomaly = a.score(ctx, domain.SourceAnomaly, a.anomaly, vec, timeout)
		return nil
	})

	_ = g.Wait()
	return ensemble, anomaly
}

func (a *Adapter) score(ctx context.Context, source domain.SignalSource, scorer Scorer, vec features.Vector, timeout time.Duration) domain.RiskSignal {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := scorer.Score(ctx, vec)
	elapsed := time.Since(start)
	a.metrics.ObserveScoreLatency(string(source), elapsed)

	if err != nil {
		code := faults.CodeSignalUnavailable
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			code = faults.CodeSignalTimeout
		}
		a.metrics.IncrementSignalFault(string(source), string(code))
		if a.logger != nil {
			a.logger.WarnContext(ctx, "signal source unavailable",
				"source", source,
				"fault", code,
				"duration_ms", elapsed.Milliseconds(),
				"error", err,
			)
		}
		return missingSignal(source, code)
	}

	return normalize(source, raw, a.metrics)
}

// normalize clamps collaborator output into the common record. Non-finite or
// out-of-range scores count as unavailable rather than partially trusted.
func normalize(source domain.SignalSource, raw RawScore, m *metrics.Metrics) domain.RiskSignal {
	if math.IsNaN(raw.Score) || math.IsInf(raw.Score, 0) ||
		math.IsNaN(raw.Confidence) || math.IsInf(raw.Confidence, 0) {
		m.IncrementSignalFault(string(source), string(faults.CodeSignalUnavailable))
		return missingSignal(source, faults.CodeSignalUnavailable)
	}

	return domain.RiskSignal{
		Source:       source,
		Score:        clamp01(raw.Score),
		Confidence:   clamp01(raw.Confidence),
		Attributions: raw.Attributions,
	}
}

func missingSignal(source domain.SignalSource, code faults.Code) domain.RiskSignal {
	return domain.RiskSignal{
		Source:    source,
		Missing:   true,
		FaultCode: string(code),
	}
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
