// Package ledger tracks per-keyword detection counters in Redis. Counters are
// bucketed by period so operators can read all-time, per-day and per-hour
// detection volumes:
//
//	Key: detections:<period-bucket>:<keyword>
//
// The ledger is advisory telemetry. Callers treat Redis errors as non-fatal
// (log and continue); a counter outage must never block a verdict.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PeriodTotal = "total"
	PeriodDay   = "day"
	PeriodHour  = "hour"

	keyPrefix = "detections:"

	// dayTTL and hourTTL bound how long the time-bucketed counters live.
	// Totals never expire.
	dayTTL  = 45 * 24 * time.Hour
	hourTTL = 8 * 24 * time.Hour
)

// Store records and reads detection counters in Redis.
type Store struct {
	client *redis.Client
}

// NewStore creates a ledger using the provided Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// periodBucket builds the Redis key for a keyword counter in a given period,
// using the current UTC time for the day and hour buckets.
func periodBucket(keyword, period string) string {
	switch period {
	case PeriodDay:
		t := time.Now().UTC().Format(time.DateOnly)
		return fmt.Sprintf("%s%s:%s:%s", keyPrefix, period, t, keyword)
	case PeriodHour:
		t := time.Now().UTC().Format("2006-01-02T15")
		return fmt.Sprintf("%s%s:%s:%s", keyPrefix, period, t, keyword)
	default:
		return fmt.Sprintf("%s%s:%s", keyPrefix, PeriodTotal, keyword)
	}
}

// Increment bumps the total, day and hour counters for every matched keyword
// in a single pipelined round trip.
func (s *Store) Increment(ctx context.Context, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, kw := range keywords {
		pipe.Incr(ctx, periodBucket(kw, PeriodTotal))

		dayKey := periodBucket(kw, PeriodDay)
		pipe.Incr(ctx, dayKey)
		pipe.Expire(ctx, dayKey, dayTTL)

		hourKey := periodBucket(kw, PeriodHour)
		pipe.Incr(ctx, hourKey)
		pipe.Expire(ctx, hourKey, hourTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("ledger: increment: %w", err)
	}
	return nil
}

// Count returns the detection counter for a keyword in the given period.
// A missing key reads as zero.
func (s *Store) Count(ctx context.Context, keyword, period string) (int64, error) {
	val, err := s.client.Get(ctx, periodBucket(keyword, period)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: count: %w", err)
	}
	return val, nil
}
