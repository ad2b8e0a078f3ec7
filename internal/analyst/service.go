// Package analyst serves the human review queue: listing decided
// transactions, recording review outcomes, and requesting fresh explanation
// runs. Analyst actions are advisory; they never change an emitted decision.
package analyst

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fraudshield/internal/analyst/metrics"
	"fraudshield/internal/domain"
	"fraudshield/internal/storage"
	"fraudshield/pkg/requestcontext"
)

// Explainer triggers an explanation run for a decided transaction.
type Explainer interface {
	RequestExplanation(ctx context.Context, txnRef string) error
}

type Service struct {
	decisions storage.DecisionStore
	actions   storage.AnalystActionStore
	explainer Explainer
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(
	decisions storage.DecisionStore,
	actions storage.AnalystActionStore,
	explainer Explainer,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		decisions: decisions,
		actions:   actions,
		explainer: explainer,
		logger:    logger,
		metrics:   m,
	}
}

// Queue lists decided transactions newest-first, optionally filtered by
// final action.
func (s *Service) Queue(ctx context.Context, actionFilter string, limit int) ([]domain.DecisionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if actionFilter == "" {
		return s.decisions.List(ctx, limit)
	}

	all, err := s.decisions.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DecisionRecord, 0, limit)
	for _, rec := range all {
		if string(rec.Action) == actionFilter {
			out = append(out, rec)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// RecordAction validates and stores one review outcome. An ESCALATE outcome
// additionally requests an analyst-triggered explanation run.
func (s *Service) RecordAction(ctx context.Context, action domain.AnalystAction) (domain.AnalystAction, error) {
	if err := action.Validate(); err != nil {
		return domain.AnalystAction{}, err
	}

	rec, err := s.decisions.FindByTransaction(ctx, action.TransactionRef)
	if err != nil {
		return domain.AnalystAction{}, err
	}

	action.ID = uuid.NewString()
	action.DecisionID = rec.ID
	action.CreatedAt = time.Now().UTC()
	if action.AnalystID == "" {
		action.AnalystID = requestcontext.AnalystID(ctx)
	}

	if err := s.actions.Save(ctx, action); err != nil {
		return domain.AnalystAction{}, err
	}
	s.metrics.RecordAction(string(action.Type))
	s.logger.InfoContext(ctx, "analyst action recorded",
		"txn_ref", action.TransactionRef,
		"type", action.Type,
		"analyst", action.AnalystID,
	)

	if action.Type == domain.ActionEscalate {
		if err := s.explainer.RequestExplanation(ctx, action.TransactionRef); err != nil {
			s.logger.WarnContext(ctx, "escalation explanation request failed",
				"txn_ref", action.TransactionRef, "error", err)
		}
	}
	return action, nil
}

// Actions lists recorded review outcomes for one transaction.
func (s *Service) Actions(ctx context.Context, txnRef string) ([]domain.AnalystAction, error) {
	return s.actions.ListByTransaction(ctx, txnRef)
}
