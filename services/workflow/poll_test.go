package workflow

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock advances instantly on Sleep and records each sleep duration.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func TestMaxChecksFor(t *testing.T) {
	cases := []struct {
		timeout, interval time.Duration
		want              int
	}{
		{60 * time.Minute, 10 * time.Minute, 6},
		{45 * time.Minute, 10 * time.Minute, 4},
		{10 * time.Minute, 10 * time.Minute, 1},
		{time.Hour, 0, 0},
	}
	for _, tc := range cases {
		if got := MaxChecksFor(tc.timeout, tc.interval); got != tc.want {
			t.Errorf("MaxChecksFor(%v, %v) = %d, want %d", tc.timeout, tc.interval, got, tc.want)
		}
	}
}

func TestPollUntilThresholdMet(t *testing.T) {
	clk := newFakeClock()
	cfg := PollConfig{
		Deadline:  clk.Now().Add(60 * time.Minute),
		Interval:  10 * time.Minute,
		MaxChecks: MaxChecksFor(60*time.Minute, 10*time.Minute),
	}

	calls := 0
	outcome, checks, err := PollUntil(context.Background(), clk, cfg, func(context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	})
	if err != nil {
		t.Fatalf("PollUntil returned error: %v", err)
	}
	if outcome != PollThresholdMet {
		t.Fatalf("outcome = %v, want PollThresholdMet", outcome)
	}
	if checks != 3 {
		t.Errorf("ran %d checks, want 3", checks)
	}
	if len(clk.sleeps) != 2 {
		t.Errorf("slept %d times, want 2", len(clk.sleeps))
	}
	for _, d := range clk.sleeps {
		if d != 10*time.Minute {
			t.Errorf("sleep of %v, want the full 10m interval", d)
		}
	}
}

func TestPollUntilDeadline(t *testing.T) {
	clk := newFakeClock()
	cfg := PollConfig{
		Deadline:  clk.Now().Add(60 * time.Minute),
		Interval:  10 * time.Minute,
		MaxChecks: 6,
	}

	outcome, checks, err := PollUntil(context.Background(), clk, cfg, func(context.Context) (bool, error) {
		return false, nil
	})
	if err != nil {
		t.Fatalf("PollUntil returned error: %v", err)
	}
	if outcome != PollDeadline {
		t.Fatalf("outcome = %v, want PollDeadline", outcome)
	}
	if checks != 6 {
		t.Errorf("ran %d checks, want the full budget of 6", checks)
	}
	// Every sleep must finish before the deadline.
	if clk.Now().After(cfg.Deadline) {
		t.Errorf("clock at %v passed deadline %v", clk.Now(), cfg.Deadline)
	}
}

func TestPollUntilFinalSleepKeepsGraceMargin(t *testing.T) {
	clk := newFakeClock()
	cfg := PollConfig{
		Deadline:  clk.Now().Add(60 * time.Minute),
		Interval:  10 * time.Minute,
		MaxChecks: 6,
	}

	_, _, err := PollUntil(context.Background(), clk, cfg, func(context.Context) (bool, error) {
		return false, nil
	})
	if err != nil {
		t.Fatalf("PollUntil returned error: %v", err)
	}
	if len(clk.sleeps) == 0 {
		t.Fatal("expected at least one sleep")
	}
	last := clk.sleeps[len(clk.sleeps)-1]
	if want := 10*time.Minute - graceMargin; last != want {
		t.Errorf("final sleep = %v, want %v (interval minus grace margin)", last, want)
	}
}

func TestPollUntilPropagatesCheckError(t *testing.T) {
	clk := newFakeClock()
	cfg := PollConfig{Deadline: clk.Now().Add(time.Hour), Interval: time.Minute, MaxChecks: 10}

	boom := errors.New("count query failed")
	_, checks, err := PollUntil(context.Background(), clk, cfg, func(context.Context) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the check error", err)
	}
	if checks != 1 {
		t.Errorf("ran %d checks after error, want 1", checks)
	}
}

func TestAwaitEventPastDeadline(t *testing.T) {
	clk := newFakeClock()
	src := &stubEventSource{}

	reply, timedOut, err := AwaitEvent(context.Background(), src, clk, "run-1", clk.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("AwaitEvent returned error: %v", err)
	}
	if !timedOut {
		t.Fatal("expected immediate timeout for a past deadline")
	}
	if reply != nil {
		t.Errorf("reply = %+v, want nil", reply)
	}
	if src.calls != 0 {
		t.Errorf("event source called %d times for a past deadline, want 0", src.calls)
	}
}
