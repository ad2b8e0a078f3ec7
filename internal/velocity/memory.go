package velocity

import (
	"context"
	"math"
	"sync"
	"time"

	"fraudshield/internal/features"
)

// MemoryTracker keeps per-payer observations in process memory. It favors
// clarity over footprint and is the default when Redis is not configured.
type MemoryTracker struct {
	mu     sync.Mutex
	payers map[string][]observation
}

type observation struct {
	amount float64
	at     time.Time
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{payers: make(map[string][]observation)}
}

func (t *MemoryTracker) Observe(_ context.Context, payerRef string, amount float64, at time.Time) (features.Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := at.Add(-Window)
	kept := t.payers[payerRef][:0]
	for _, o := range t.payers[payerRef] {
		if o.at.After(cutoff) {
			kept = append(kept, o)
		}
	}
	kept = append(kept, observation{amount: amount, at: at})
	t.payers[payerRef] = kept

	var sum, sumSq float64
	for _, o := range kept {
		sum += o.amount
		sumSq += o.amount * o.amount
	}
	n := float64(len(kept))
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	return features.Stats{
		Count24h: len(kept),
		Mean:     mean,
		Std:      math.Sqrt(variance),
	}, nil
}
