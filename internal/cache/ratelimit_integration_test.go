//go:build integration

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/adboard/adboard/internal/testutil"
)

func TestCheckClientRateLimit_Concurrency(t *testing.T) {
	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	defer c.Close()

	testutil.ResetRateLimits(t, c)

	const (
		rps   = 2
		burst = 5
	)

	var allowed, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				result, err := c.CheckClientRateLimit(ctx, "10.1.2.3", rps, burst)
				if err != nil {
					t.Errorf("CheckClientRateLimit error: %v", err)
					return
				}
				if result.Allowed {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}
	wg.Wait()

	if allowed > int64(burst+rps*2) {
		t.Errorf("Too many requests allowed: %d", allowed)
	}
	if rejected == 0 {
		t.Error("Expected some requests to be rejected")
	}
}

func TestCheckClientRateLimit_DisabledRate(t *testing.T) {
	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	defer c.Close()

	for i := 0; i < 50; i++ {
		result, err := c.CheckClientRateLimit(ctx, "10.9.9.9", 0, 1)
		if err != nil {
			t.Fatalf("CheckClientRateLimit error: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("request %d rejected with rate disabled", i)
		}
	}
}

func TestReset_RefillsBuckets(t *testing.T) {
	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	defer c.Close()

	for i := 0; i < 3; i++ {
		if _, err := c.CheckClientRateLimit(ctx, "10.7.7.7", 1, 1); err != nil {
			t.Fatalf("CheckClientRateLimit error: %v", err)
		}
	}

	removed, err := c.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if removed < 1 {
		t.Errorf("removed = %d, want at least 1", removed)
	}

	result, err := c.CheckClientRateLimit(ctx, "10.7.7.7", 1, 1)
	if err != nil {
		t.Fatalf("CheckClientRateLimit error: %v", err)
	}
	if !result.Allowed {
		t.Error("request rejected after Reset")
	}
}
