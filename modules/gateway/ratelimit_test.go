package gateway

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowsBurstThenBlocks(t *testing.T) {
	limiter := newRateLimiter(5, 1)

	for i := 0; i < 5; i++ {
		if !limiter.allow() {
			t.Fatalf("request %d within burst was rejected", i)
		}
	}
	if limiter.allow() {
		t.Error("request beyond burst was allowed")
	}
}

func TestRateLimiter_Refills(t *testing.T) {
	limiter := newRateLimiter(2, 1000)

	limiter.allow()
	limiter.allow()
	if limiter.allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(1100 * time.Millisecond)
	if !limiter.allow() {
		t.Error("bucket did not refill after waiting")
	}
}

func TestRateLimiter_CapsAtMaxTokens(t *testing.T) {
	limiter := newRateLimiter(2, 1000)
	time.Sleep(1100 * time.Millisecond)

	// Refill never exceeds the burst capacity.
	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.allow() {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed %d requests after refill, want 2", allowed)
	}
}
