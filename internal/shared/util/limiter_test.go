package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 files per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) || !l.Allow(1) {
		t.Fatal("expected the burst to be allowed")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := l.Wait(ctx, 1); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Wait returned too early")
	}
}

func TestNewFileLimiter(t *testing.T) {
	if l := NewFileLimiter(0); l != nil {
		t.Fatal("expected no limiter for a zero rate")
	}

	var unlimited *Limiter
	if !unlimited.Allow(1000) {
		t.Error("expected a nil limiter to allow everything")
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := unlimited.Wait(ctx, 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cancel()
	if err := unlimited.Wait(ctx, 1); err == nil {
		t.Error("expected the cancelled context to be reported")
	}

	l := NewFileLimiter(2.5)
	for i := 0; i < 3; i++ {
		if !l.Allow(1) {
			t.Fatalf("expected burst token %d to be allowed", i)
		}
	}
	if l.Allow(1) {
		t.Error("expected the burst to be capped at three")
	}
}
