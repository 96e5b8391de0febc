package utils

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestThrottleFirstCallDoesNotBlock(t *testing.T) {
	th := NewThrottle(500)
	start := time.Now()
	if err := th.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("first Wait should return immediately")
	}
}

func TestThrottleRateLimit(t *testing.T) {
	rateLimitMs := 100
	th := NewThrottle(rateLimitMs)

	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		if err := th.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
		timestamps = append(timestamps, time.Now())
	}

	min := time.Duration(rateLimitMs) * time.Millisecond
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < min {
			t.Errorf("gap between call %d and %d: %v < minimum %v", i-1, i, gap, min)
		}
	}
}

func TestThrottleHonoursCancellation(t *testing.T) {
	th := NewThrottle(10_000)
	_ = th.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := th.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait after cancel: got %v, want context.Canceled", err)
	}
}

func TestThrottleWithoutIntervalStillHonoursCancellation(t *testing.T) {
	th := NewThrottle(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := th.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait after cancel: got %v, want context.Canceled", err)
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewLoggerTo(&bytes.Buffer{})}
	calls := 0
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewLoggerTo(&bytes.Buffer{})}
	boom := errors.New("boom")
	calls := 0
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("error should wrap the last failure, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryPermanentError(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond}
	boom := errors.New("not found")
	calls := 0
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return Permanent(boom)
	})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("permanent errors must not be retried, calls = %d", calls)
	}
}

func TestLoggerDrain(t *testing.T) {
	var out bytes.Buffer
	l := NewLoggerTo(&out)
	l.Info("[test] first %d", 1)
	l.Debug("[test] hidden")
	l.Error("[test] second")

	lines := l.Drain()
	if len(lines) != 2 {
		t.Fatalf("drained %d lines, want 2: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[test] first 1") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(out.String(), "[test] second") {
		t.Error("entries should also reach the console writer")
	}
	if len(l.Drain()) != 0 {
		t.Error("Drain should reset the buffer")
	}
}

func TestLoggerSetLevel(t *testing.T) {
	l := NewLoggerTo(&bytes.Buffer{})
	l.SetLevel("debug")
	l.Debug("[test] visible")
	if got := l.Drain(); len(got) != 1 {
		t.Errorf("debug line should be kept after SetLevel(debug), got %q", got)
	}
}
