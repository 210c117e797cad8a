package workflow

import (
	"context"
	"time"
)

// graceMargin is subtracted from the remaining budget when computing each
// sleep so the final check runs before the deadline rather than after it.
const graceMargin = 5 * time.Second

// PollOutcome says how a bounded poll ended.
type PollOutcome int

const (
	// PollThresholdMet means the check reported done before the deadline.
	PollThresholdMet PollOutcome = iota
	// PollDeadline means the wall-clock budget ran out first.
	PollDeadline
)

// PollConfig bounds a polling loop. There is no external cancel signal:
// the loop ends on threshold, deadline, or context cancellation only.
type PollConfig struct {
	Deadline  time.Time
	Interval  time.Duration
	MaxChecks int
}

// MaxChecksFor computes the check budget for a response-collection window.
func MaxChecksFor(timeout, interval time.Duration) int {
	if interval <= 0 {
		return 0
	}
	return int(timeout.Seconds() / interval.Seconds())
}

// PollUntil runs check up to cfg.MaxChecks times, sleeping between checks,
// until check reports done or the deadline passes. It returns the outcome
// and how many checks actually ran.
func PollUntil(ctx context.Context, clk Clock, cfg PollConfig, check func(ctx context.Context) (bool, error)) (PollOutcome, int, error) {
	checks := 0
	for checks < cfg.MaxChecks {
		done, err := check(ctx)
		checks++
		if err != nil {
			return PollDeadline, checks, err
		}
		if done {
			return PollThresholdMet, checks, nil
		}

		remaining := cfg.Deadline.Sub(clk.Now())
		sleep := cfg.Interval
		if budget := remaining - graceMargin; budget < sleep {
			sleep = budget
		}
		if sleep <= 0 {
			return PollDeadline, checks, nil
		}
		if err := clk.Sleep(ctx, sleep); err != nil {
			return PollDeadline, checks, err
		}
	}
	return PollDeadline, checks, nil
}
