// Package orchestrator drives the real-time decision state machine:
// COLLECTING fans out to the signal adapter and the policy engine under one
// wall-clock budget, FUSING combines what settled into a final action, and
// EMITTED returns the record to the caller. Explanation and audit run on a
// separate concurrency domain after emission and can never regress the
// real-time path.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"fraudshield/internal/agent"
	"fraudshield/internal/domain"
	"fraudshield/internal/features"
	"fraudshield/internal/orchestrator/metrics"
	"fraudshield/internal/platform/config"
	"fraudshield/internal/policy"
	"fraudshield/internal/sanitize"
	"fraudshield/internal/storage"
	"fraudshield/internal/velocity"
	"fraudshield/pkg/faults"
)

// ExplanationUnavailable is stored when no usable explanation text was
// produced; readers surface it as-is.
const ExplanationUnavailable = "Explanation temporarily unavailable."

// SignalCollector is the signal adapter seen by the orchestrator.
type SignalCollector interface {
	Collect(ctx context.Context, vec features.Vector, timeout time.Duration) (ensemble, anomaly domain.RiskSignal)
}

// AgentRunner is the agent coordinator seen by the orchestrator.
type AgentRunner interface {
	Run(ctx context.Context, sctx sanitize.SanitizedContext, opts agent.Options) []domain.AgentResult
}

// AuditRecorder hands a finalized decision to the audit trail.
type AuditRecorder interface {
	Record(rec domain.DecisionRecord, agents []domain.AgentResult) error
}

// Runtime bundles one configuration snapshot with the artifacts compiled
// from it. A decision run loads the runtime once and observes that snapshot
// end-to-end; reloads build a new Runtime and swap it atomically.
type Runtime struct {
	Snapshot  *config.Snapshot
	Policy    *policy.Engine
	Sanitizer *sanitize.Sanitizer
}

// NewRuntime compiles the snapshot's rule set and sanitizer. A snapshot that
// fails to compile is rejected whole; the caller keeps the previous runtime.
func NewRuntime(snap *config.Snapshot) (*Runtime, error) {
	engine, err := policy.NewEngine(snap.Config.Policy)
	if err != nil {
		return nil, err
	}
	d := snap.Config.Decision
	return &Runtime{
		Snapshot:  snap,
		Policy:    engine,
		Sanitizer: sanitize.New(d.ChallengeThreshold, d.HardThreshold),
	}, nil
}

// Service is the decision orchestrator.
type Service struct {
	runtime      atomic.Pointer[Runtime]
	velocity     velocity.Tracker
	signals      SignalCollector
	coordinator  AgentRunner
	decisions    storage.DecisionStore
	explanations storage.ExplanationStore
	recorder     AuditRecorder
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer

	group     singleflight.Group
	asyncWork sync.WaitGroup
}

func NewService(
	rt *Runtime,
	tracker velocity.Tracker,
	signals SignalCollector,
	coordinator AgentRunner,
	decisions storage.DecisionStore,
	explanations storage.ExplanationStore,
	recorder AuditRecorder,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	s := &Service{
		velocity:     tracker,
		signals:      signals,
		coordinator:  coordinator,
		decisions:    decisions,
		explanations: explanations,
		recorder:     recorder,
		logger:       logger,
		metrics:      m,
		tracer:       otel.Tracer("fraudshield/orchestrator"),
	}
	s.runtime.Store(rt)
	return s
}

// Swap activates a new runtime. In-flight decisions keep the snapshot they
// started with.
func (s *Service) Swap(rt *Runtime) { s.runtime.Store(rt) }

// Wait blocks until all in-flight explanation and audit work has finished.
// Used at shutdown and in tests.
func (s *Service) Wait() { s.asyncWork.Wait() }

// Decide runs the full real-time path for one transaction. Resubmitting a
// reference while its first decision is in flight joins that decision;
// resubmitting after completion returns the stored record. Faults inside the
// run degrade the verdict, they are never returned to the caller; only a
// malformed transaction is rejected outright.
func (s *Service) Decide(ctx context.Context, txn domain.Transaction) (domain.DecisionRecord, error) {
	if err := txn.Validate(); err != nil {
		return domain.DecisionRecord{}, err
	}

	v, err, shared := s.group.Do(txn.Ref, func() (any, error) {
		if existing, err := s.decisions.FindByTransaction(ctx, txn.Ref); err == nil {
			return existing, nil
		}
		return s.decide(ctx, txn), nil
	})
	if shared {
		s.metrics.RecordInFlightJoin()
	}
	if err != nil {
		return domain.DecisionRecord{}, err
	}
	return v.(domain.DecisionRecord), nil
}

func (s *Service) decide(ctx context.Context, txn domain.Transaction) domain.DecisionRecord {
	rt := s.runtime.Load()
	d := rt.Snapshot.Config.Decision
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "decision.run",
		trace.WithAttributes(
			attribute.String("txn.channel", string(txn.Channel)),
			attribute.Int64("config.version", int64(rt.Snapshot.Version)),
		))
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, d.Budget)
	defer cancel()

	// COLLECTING. Velocity is observed first: both the feature vector and
	// the velocity policy rule need the updated counter.
	stats := s.observeVelocity(runCtx, txn)
	vec := features.Build(txn, stats)

	sigCh := make(chan [2]domain.RiskSignal, 1)
	polCh := make(chan []domain.PolicyVerdict, 1)
	go func() {
		e, a := s.signals.Collect(runCtx, vec, d.SignalTimeout)
		sigCh <- [2]domain.RiskSignal{e, a}
	}()
	go func() {
		polCh <- rt.Policy.Evaluate(runCtx, txn, stats.Count24h)
	}()

	var (
		ensemble, anomaly domain.RiskSignal
		verdicts          []domain.PolicyVerdict
		sigDone, polDone  bool
		budgetExceeded    bool
	)
	for !(sigDone && polDone) && !budgetExceeded {
		select {
		case r := <-sigCh:
			ensemble, anomaly = r[0], r[1]
			sigDone = true
		case v := <-polCh:
			verdicts = v
			polDone = true
		case <-runCtx.Done():
			// Deadline fired mid-collection. What settled is used; the
			// rest is treated as timed out, not awaited.
			budgetExceeded = true
		}
	}
	if !sigDone {
		ensemble = timedOutSignal(domain.SourceEnsemble)
		anomaly = timedOutSignal(domain.SourceAnomaly)
	}
	if budgetExceeded {
		s.metrics.RecordBudgetExceeded()
	}

	// FUSING.
	res := fuse(verdicts, ensemble, anomaly, d, budgetExceeded)

	rec := domain.DecisionRecord{
		ID:                  uuid.NewString(),
		TransactionRef:      txn.Ref,
		Action:              res.Action,
		RiskScore:           res.Score,
		Signals:             []domain.RiskSignal{ensemble, anomaly},
		Verdicts:            verdicts,
		ReasonCodes:         res.ReasonCodes,
		FeatureHash:         vec.Hash(),
		RuleSetVersion:      rt.Policy.Version(),
		ConfigVersion:       rt.Snapshot.Version,
		DecidedAt:           time.Now().UTC(),
		Latency:             time.Since(start),
		ExplanationRequired: res.Action != domain.ActionAllow,
	}

	// EMITTED.
	if err := s.decisions.Save(ctx, rec); err != nil {
		if existing, ferr := s.decisions.FindByTransaction(ctx, txn.Ref); ferr == nil {
			return existing
		}
		s.logger.ErrorContext(ctx, "decision store save failed", "txn_ref", txn.Ref, "error", err)
	}

	s.metrics.RecordDecision(string(rec.Action), res.Degraded, rec.Latency)
	s.logger.InfoContext(ctx, "decision emitted",
		"txn_ref", rec.TransactionRef,
		"action", rec.Action,
		"risk_score", rec.RiskScore,
		"reasons", rec.ReasonCodes,
		"latency_ms", rec.Latency.Milliseconds(),
		"degraded", res.Degraded,
	)

	// EXPLAINING and CLOSED run on their own concurrency domain.
	s.asyncWork.Add(1)
	go s.closeOut(rec)

	return rec
}

// closeOut finishes the post-emission stages: an explanation run when the
// action requires one, then the audit handoff. Nothing here can change the
// emitted record.
func (s *Service) closeOut(rec domain.DecisionRecord) {
	defer s.asyncWork.Done()
	ctx := context.Background()

	var agents []domain.AgentResult
	if rec.ExplanationRequired {
		agents = s.explain(ctx, rec, domain.TriggerSystem)
	}
	if err := s.recorder.Record(rec, agents); err != nil {
		s.logger.Error("audit handoff failed",
			"txn_ref", rec.TransactionRef, "error", err)
	}
}

// RequestExplanation starts an analyst-requested explanation run for an
// already-decided transaction. The run is asynchronous; the stored
// explanation is replaced when it completes.
func (s *Service) RequestExplanation(ctx context.Context, txnRef string) error {
	rec, err := s.decisions.FindByTransaction(ctx, txnRef)
	if err != nil {
		return err
	}
	s.asyncWork.Add(1)
	go func() {
		defer s.asyncWork.Done()
		s.explain(context.Background(), rec, domain.TriggerAnalyst)
	}()
	return nil
}

// explain sanitizes the record, runs the agents, and stores the resulting
// explanation. The sanitizer is the only path from the record to the agents.
func (s *Service) explain(ctx context.Context, rec domain.DecisionRecord, trigger domain.ExplanationTrigger) []domain.AgentResult {
	rt := s.runtime.Load()
	ctx, span := s.tracer.Start(ctx, "decision.explain",
		trace.WithAttributes(attribute.String("trigger", string(trigger))))
	defer span.End()

	sctx := rt.Sanitizer.Sanitize(rec)

	a := rt.Snapshot.Config.Agents
	results := s.coordinator.Run(ctx, sctx, agent.Options{
		AgentTimeout:     a.Timeout,
		RetrievalTimeout: a.RetrievalTimeout,
		RetrievalK:       a.RetrievalK,
		MaxOutputBytes:   a.MaxOutputBytes,
	})

	text := ExplanationUnavailable
	outcome := "unavailable"
	for _, r := range results {
		if r.AgentID == agent.ExplanationAgentID && r.Status == domain.AgentOK && r.Output != "" {
			text = r.Output
			outcome = "ok"
			break
		}
	}

	exp := domain.Explanation{
		DecisionID:     rec.ID,
		TransactionRef: rec.TransactionRef,
		Trigger:        trigger,
		Text:           text,
		Agents:         results,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.explanations.Save(ctx, exp); err != nil {
		outcome = "store_failed"
		s.logger.ErrorContext(ctx, "explanation store save failed",
			"txn_ref", rec.TransactionRef, "error", err)
	}
	s.metrics.RecordExplanation(string(trigger), outcome)
	return results
}

// observeVelocity updates the payer's rolling counters. A tracker fault
// degrades features to zero, it never blocks or fails the decision.
func (s *Service) observeVelocity(ctx context.Context, txn domain.Transaction) features.Stats {
	stats, err := s.velocity.Observe(ctx, txn.PayerRef, txn.Amount, txn.At)
	if err != nil {
		s.logger.WarnContext(ctx, "velocity tracker unavailable",
			"fault", faults.CodeOf(err), "error", err)
		return features.Stats{}
	}
	return stats
}

func timedOutSignal(source domain.SignalSource) domain.RiskSignal {
	return domain.RiskSignal{
		Source:    source,
		Missing:   true,
		FaultCode: string(faults.CodeSignalTimeout),
	}
}
