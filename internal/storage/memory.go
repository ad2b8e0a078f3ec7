package storage

import (
	"context"
	"sync"

	"fraudshield/internal/domain"
	"fraudshield/pkg/faults"
)

// In-memory stores back the default deployment and tests. Decisions are kept
// both by transaction reference and in emission order so listing is
// newest-first without sorting on read.

type MemoryDecisionStore struct {
	mu    sync.RWMutex
	byRef map[string]domain.DecisionRecord
	order []string
}

func NewMemoryDecisionStore() *MemoryDecisionStore {
	return &MemoryDecisionStore{byRef: make(map[string]domain.DecisionRecord)}
}

func (s *MemoryDecisionStore) Save(_ context.Context, rec domain.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byRef[rec.TransactionRef]; ok {
		return faults.Newf(faults.CodeDuplicateSubmission,
			"decision for transaction %s already recorded", rec.TransactionRef)
	}
	s.byRef[rec.TransactionRef] = rec
	s.order = append(s.order, rec.TransactionRef)
	return nil
}

func (s *MemoryDecisionStore) FindByTransaction(_ context.Context, txnRef string) (domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byRef[txnRef]
	if !ok {
		return domain.DecisionRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryDecisionStore) List(_ context.Context, limit int) ([]domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.DecisionRecord, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.byRef[s.order[i]])
	}
	return out, nil
}

type MemoryExplanationStore struct {
	mu    sync.RWMutex
	byRef map[string]domain.Explanation
}

func NewMemoryExplanationStore() *MemoryExplanationStore {
	return &MemoryExplanationStore{byRef: make(map[string]domain.Explanation)}
}

func (s *MemoryExplanationStore) Save(_ context.Context, exp domain.Explanation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRef[exp.TransactionRef] = exp
	return nil
}

func (s *MemoryExplanationStore) FindByTransaction(_ context.Context, txnRef string) (domain.Explanation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.byRef[txnRef]
	if !ok {
		return domain.Explanation{}, ErrNotFound
	}
	return exp, nil
}

type MemoryAnalystActionStore struct {
	mu    sync.RWMutex
	byRef map[string][]domain.AnalystAction
}

func NewMemoryAnalystActionStore() *MemoryAnalystActionStore {
	return &MemoryAnalystActionStore{byRef: make(map[string][]domain.AnalystAction)}
}

func (s *MemoryAnalystActionStore) Save(_ context.Context, action domain.AnalystAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRef[action.TransactionRef] = append(s.byRef[action.TransactionRef], action)
	return nil
}

func (s *MemoryAnalystActionStore) ListByTransaction(_ context.Context, txnRef string) ([]domain.AnalystAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actions := s.byRef[txnRef]
	out := make([]domain.AnalystAction, len(actions))
	copy(out, actions)
	return out, nil
}
