package audit

import "context"

// Store persists chained audit entries. Append must be durable before it
// returns; the Recorder retries on failure, so implementations should treat a
// replay of an already-stored entry as success.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}

// Reader lists stored entries for verification and review. Write-only sinks
// (Kafka) do not implement it.
type Reader interface {
	List(ctx context.Context, limit int) ([]Entry, error)
	ListByTransaction(ctx context.Context, txnRef string) ([]Entry, error)
}
