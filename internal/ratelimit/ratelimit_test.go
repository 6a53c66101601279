package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestTokenBucketPerKey(t *testing.T) {
	l, err := NewTokenBucket(1, 2)
	if err != nil {
		t.Fatalf("new token bucket: %v", err)
	}
	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatalf("burst of 2 should pass")
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("third request should be blocked")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatalf("other clients have their own bucket")
	}
}

func TestTokenBucketSweep(t *testing.T) {
	l, err := NewTokenBucket(1, 1)
	if err != nil {
		t.Fatalf("new token bucket: %v", err)
	}
	l.Allow("a")
	l.Allow("b")
	l.Sweep(time.Hour)
	if l.size() != 2 {
		t.Fatalf("recent clients should survive, got %d", l.size())
	}
	time.Sleep(5 * time.Millisecond)
	l.Sweep(time.Millisecond)
	if l.size() != 0 {
		t.Fatalf("idle clients should be evicted, got %d", l.size())
	}
}

func TestTokenBucketSweeperStops(t *testing.T) {
	l, _ := NewTokenBucket(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.RunSweeper(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop")
	}
}

func TestTokenBucketRejectsBadSettings(t *testing.T) {
	if _, err := NewTokenBucket(0, 1); err == nil {
		t.Fatalf("expected error for zero rps")
	}
	if _, err := NewTokenBucket(1, 0); err == nil {
		t.Fatalf("expected error for zero burst")
	}
}

func TestFixedWindowRedis(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewFixedWindow(redis.Addr(), "", "test:ratelimit", 2, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()

	if err := limiter.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !limiter.Allow("ip-1") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow("ip-1") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow("ip-1") {
		t.Fatalf("third request should be blocked")
	}
	if !limiter.Allow("ip-2") {
		t.Fatalf("other clients are counted separately")
	}
}

func TestFixedWindowRedisFailClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewFixedWindow(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	redis.Close()
	if limiter.Allow("ip-1") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestFixedWindowRequiresRedisAddr(t *testing.T) {
	limiter, err := NewFixedWindow("", "", "test:ratelimit", 1, time.Second)
	if err == nil || limiter != nil {
		t.Fatalf("expected constructor error for empty redis addr")
	}
}
