package audit

import (
	"context"
	"log/slog"
	"time"

	"fraudshield/internal/audit/metrics"
	"fraudshield/internal/domain"
	"fraudshield/pkg/faults"
)

// Recorder accepts decision records on the hot path and appends them to the
// store from a single background worker. The worker owns the hash chain:
// sequence numbers and chain hashes are assigned at append time, in arrival
// order, so concurrent decisions never race on the chain head.
//
// Delivery is at-least-once: a failed append is retried with capped backoff
// until it lands or the recorder is shut down. Stores deduplicate replays by
// entry hash.
type Recorder struct {
	store   Store
	inbox   chan Entry
	logger  *slog.Logger
	metrics *metrics.Metrics

	backoffBase time.Duration
	backoffMax  time.Duration

	seq  uint64
	head string
}

// RecorderOptions tune queue and retry behavior. Zero values get defaults.
type RecorderOptions struct {
	QueueSize   int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

func NewRecorder(store Store, logger *slog.Logger, m *metrics.Metrics, opts RecorderOptions) *Recorder {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 100 * time.Millisecond
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = 5 * time.Second
	}
	return &Recorder{
		store:       store,
		inbox:       make(chan Entry, opts.QueueSize),
		logger:      logger,
		metrics:     m,
		backoffBase: opts.BackoffBase,
		backoffMax:  opts.BackoffMax,
		head:        GenesisHash,
	}
}

// Record enqueues the decision for auditing. It never blocks the decision
// path: a full queue is reported as a fault for the caller to log, the
// decision itself stands.
func (r *Recorder) Record(rec domain.DecisionRecord, agents []domain.AgentResult) error {
	entry := FromDecision(rec, agents)
	select {
	case r.inbox <- entry:
		r.metrics.SetQueueDepth(len(r.inbox))
		return nil
	default:
		return faults.New(faults.CodeAuditWriteFailed, "audit queue full")
	}
}

// Run drains the queue until ctx is canceled. Call it once, from its own
// goroutine.
func (r *Recorder) Run(ctx context.Context) error {
	if err := r.seedChain(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return ctx.Err()
		case entry := <-r.inbox:
			r.metrics.SetQueueDepth(len(r.inbox))
			if err := r.append(ctx, entry); err != nil {
				return err
			}
		}
	}
}

// seedChain resumes the chain from the store head when the backend survives
// restarts. Memory and Kafka backends start from genesis.
func (r *Recorder) seedChain(ctx context.Context) error {
	type headReader interface {
		HeadHash(ctx context.Context) (string, uint64, error)
	}
	hr, ok := r.store.(headReader)
	if !ok {
		return nil
	}
	head, seq, err := hr.HeadHash(ctx)
	if err != nil {
		return err
	}
	r.head, r.seq = head, seq
	return nil
}

// append chains the entry and retries the store write until it succeeds.
func (r *Recorder) append(ctx context.Context, entry Entry) error {
	r.seq++
	entry.Sequence = r.seq
	entry.PrevHash = r.head
	entry.RecordedAt = time.Now().UTC()

	hash, err := entry.Hash()
	if err != nil {
		// A record that cannot hash cannot chain. Log and skip it rather
		// than wedge every entry behind it.
		r.seq--
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "audit entry not hashable, skipping",
				"decision_id", entry.DecisionID, "error", err)
		}
		return nil
	}
	entry.EntryHash = hash

	backoff := r.backoffBase
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := r.store.Append(ctx, entry)
		if err == nil {
			r.head = entry.EntryHash
			r.metrics.RecordAppend(time.Since(start))
			return nil
		}

		r.metrics.RecordRetry()
		if r.logger != nil {
			r.logger.WarnContext(ctx, "audit append failed, retrying",
				"decision_id", entry.DecisionID,
				"sequence", entry.Sequence,
				"attempt", attempt,
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > r.backoffMax {
			backoff = r.backoffMax
		}
	}
}

// drain makes a best-effort single pass over queued entries during shutdown.
func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case entry := <-r.inbox:
			r.seq++
			entry.Sequence = r.seq
			entry.PrevHash = r.head
			entry.RecordedAt = time.Now().UTC()
			hash, err := entry.Hash()
			if err != nil {
				r.seq--
				continue
			}
			entry.EntryHash = hash
			if err := r.store.Append(ctx, entry); err != nil {
				if r.logger != nil {
					r.logger.Error("audit entry lost at shutdown",
						"decision_id", entry.DecisionID, "error", err)
				}
				return
			}
			r.head = entry.EntryHash
		default:
			return
		}
	}
}
