package storage

import (
	"context"

	"fraudshield/internal/domain"
	"fraudshield/pkg/faults"
)

// ErrNotFound keeps storage-specific 404s consistent across in-memory and
// future implementations.
var ErrNotFound = faults.New(faults.CodeNotFound, "record not found")

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory or external persistence without rewiring business code.

// DecisionStore holds emitted decision records. Records are immutable once
// saved; Save on an existing transaction reference is rejected.
type DecisionStore interface {
	Save(ctx context.Context, rec domain.DecisionRecord) error
	FindByTransaction(ctx context.Context, txnRef string) (domain.DecisionRecord, error)
	List(ctx context.Context, limit int) ([]domain.DecisionRecord, error)
}

// ExplanationStore holds explanation runs, keyed by transaction reference.
// A later run (analyst-requested) replaces the stored one.
type ExplanationStore interface {
	Save(ctx context.Context, exp domain.Explanation) error
	FindByTransaction(ctx context.Context, txnRef string) (domain.Explanation, error)
}

// AnalystActionStore holds review outcomes, append-only per transaction.
type AnalystActionStore interface {
	Save(ctx context.Context, action domain.AnalystAction) error
	ListByTransaction(ctx context.Context, txnRef string) ([]domain.AnalystAction, error)
}
