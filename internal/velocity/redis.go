package velocity

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"fraudshield/internal/features"
)

// RedisTracker keeps per-payer counters in Redis so multiple instances share
// one view of payer activity. The 24h window is approximated with key TTLs:
// counters reset when a payer is idle for the full window, which slightly
// under-counts bursty payers at the window edge. Acceptable for a scrutiny
// signal; exact windows belong to the feature pipeline.
type RedisTracker struct {
	client *redis.Client
}

func NewRedisTracker(client *redis.Client) *RedisTracker {
	return &RedisTracker{client: client}
}

func (t *RedisTracker) Observe(ctx context.Context, payerRef string, amount float64, _ time.Time) (features.Stats, error) {
	countKey := fmt.Sprintf("fs:vel:%s:count", payerRef)
	sumKey := fmt.Sprintf("fs:vel:%s:sum", payerRef)
	sumSqKey := fmt.Sprintf("fs:vel:%s:sumsq", payerRef)

	pipe := t.client.TxPipeline()
	countCmd := pipe.Incr(ctx, countKey)
	sumCmd := pipe.IncrByFloat(ctx, sumKey, amount)
	sumSqCmd := pipe.IncrByFloat(ctx, sumSqKey, amount*amount)
	pipe.Expire(ctx, countKey, Window)
	pipe.Expire(ctx, sumKey, Window)
	pipe.Expire(ctx, sumSqKey, Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return features.Stats{}, fmt.Errorf("velocity pipeline: %w", err)
	}

	n := float64(countCmd.Val())
	mean := sumCmd.Val() / n
	variance := sumSqCmd.Val()/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	return features.Stats{
		Count24h: int(countCmd.Val()),
		Mean:     mean,
		Std:      math.Sqrt(variance),
	}, nil
}
