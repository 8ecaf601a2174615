package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestLimiter creates a Limiter connected to a local Redis instance and
// cleans up test keys. Tests that call this helper require a running Redis on
// localhost:6379 and are skipped otherwise.
func newTestLimiter(t *testing.T) *Limiter {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	clean := func() {
		iter := client.Scan(ctx, 0, "rl:*:test_*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}
	clean()
	t.Cleanup(func() {
		clean()
		client.Close()
	})
	return NewLimiter(client)
}

func TestAllow_WithinLimit(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:warn:", Limit: 3, Window: time.Minute}

	for i := 0; i < rule.Limit; i++ {
		ok, err := limiter.Allow(ctx, "test_user1", rule)
		if err != nil {
			t.Fatalf("Allow #%d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("Allow #%d = false, want true", i+1)
		}
	}

	ok, err := limiter.Allow(ctx, "test_user1", rule)
	if err != nil {
		t.Fatalf("Allow over limit: %v", err)
	}
	if ok {
		t.Error("Allow over limit = true, want false")
	}
}

func TestAllow_IdentifiersIndependent(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:warn:", Limit: 1, Window: time.Minute}

	if ok, _ := limiter.Allow(ctx, "test_a", rule); !ok {
		t.Fatal("first event for test_a denied")
	}
	if ok, _ := limiter.Allow(ctx, "test_b", rule); !ok {
		t.Error("first event for test_b denied")
	}
}

func TestRemaining(t *testing.T) {
	limiter := newTestLimiter(t)
	ctx := context.Background()
	rule := Rule{Key: "rl:notify:", Limit: 5, Window: time.Minute}

	n, err := limiter.Remaining(ctx, "test_chat1", rule)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if n != 5 {
		t.Errorf("Remaining before any events = %d, want 5", n)
	}

	limiter.Allow(ctx, "test_chat1", rule)
	limiter.Allow(ctx, "test_chat1", rule)

	n, err = limiter.Remaining(ctx, "test_chat1", rule)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if n != 3 {
		t.Errorf("Remaining after 2 events = %d, want 3", n)
	}
}
