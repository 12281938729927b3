package redislimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/session-desk/sessiondesk/internal/domain/ratelimit"
)

// Tests require a running Redis; set SESSIONDESK_TEST_REDIS_ADDR to run them.
func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("SESSIONDESK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SESSIONDESK_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		_ = rdb.Close()
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	return rdb
}

func testKey(t *testing.T) string {
	return fmt.Sprintf("%s:%d", t.Name(), time.Now().UnixNano())
}

func TestAllowWithinLimit(t *testing.T) {
	limiter := NewRateLimiter(testClient(t))
	ctx := context.Background()
	cfg := ratelimit.Config{Window: time.Minute, Max: 3}
	key := testKey(t)

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, key, cfg)
		if err != nil {
			t.Fatalf("Allow() call %d error = %v", i+1, err)
		}
		if !res.Allowed {
			t.Fatalf("Allow() call %d = denied, want allowed", i+1)
		}
	}

	res, err := limiter.Allow(ctx, key, cfg)
	if err != nil {
		t.Fatalf("Allow() over limit error = %v", err)
	}
	if res.Allowed {
		t.Error("Allow() over limit = allowed, want denied")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want in (0, 1m]", res.RetryAfter)
	}
}

func TestIndependentKeys(t *testing.T) {
	limiter := NewRateLimiter(testClient(t))
	ctx := context.Background()
	cfg := ratelimit.Config{Window: time.Minute, Max: 1}

	keyA := testKey(t) + ":a"
	keyB := testKey(t) + ":b"

	if res, err := limiter.Allow(ctx, keyA, cfg); err != nil || !res.Allowed {
		t.Fatalf("Allow(keyA) = (%+v, %v), want allowed", res, err)
	}
	if res, err := limiter.Allow(ctx, keyB, cfg); err != nil || !res.Allowed {
		t.Errorf("Allow(keyB) = (%+v, %v), want allowed despite keyA exhaustion", res, err)
	}
}

func TestWindowReset(t *testing.T) {
	limiter := NewRateLimiter(testClient(t))
	ctx := context.Background()
	cfg := ratelimit.Config{Window: 100 * time.Millisecond, Max: 1}
	key := testKey(t)

	if res, err := limiter.Allow(ctx, key, cfg); err != nil || !res.Allowed {
		t.Fatalf("first Allow() = (%+v, %v), want allowed", res, err)
	}
	if res, err := limiter.Allow(ctx, key, cfg); err != nil || res.Allowed {
		t.Fatalf("second Allow() = (%+v, %v), want denied", res, err)
	}

	time.Sleep(150 * time.Millisecond)

	if res, err := limiter.Allow(ctx, key, cfg); err != nil || !res.Allowed {
		t.Errorf("Allow() after window = (%+v, %v), want allowed", res, err)
	}
}

func TestPrefixOption(t *testing.T) {
	rdb := testClient(t)
	limiter := NewRateLimiter(rdb, WithPrefix("custom:prefix:"))
	ctx := context.Background()
	key := testKey(t)

	if _, err := limiter.Allow(ctx, key, ratelimit.Config{Window: time.Minute, Max: 1}); err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	exists, err := rdb.Exists(ctx, "custom:prefix:"+key).Result()
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists != 1 {
		t.Error("counter not stored under the configured prefix")
	}
}
