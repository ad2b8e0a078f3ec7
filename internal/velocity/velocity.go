// Package velocity maintains per-payer rolling transaction counters. The
// counters feed the txn_velocity_24h and amount_zscore features and are the
// only mutable state the intake path touches.
package velocity

import (
	"context"
	"time"

	"fraudshield/internal/features"
)

// Window is the trailing period counters approximate.
const Window = 24 * time.Hour

// Tracker records a transaction observation and returns the payer's stats
// including the new observation. Implementations must be safe for concurrent
// use; a tracker failure degrades features to zero, it never blocks intake.
type Tracker interface {
	Observe(ctx context.Context, payerRef string, amount float64, at time.Time) (features.Stats, error)
}
