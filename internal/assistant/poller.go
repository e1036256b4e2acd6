// ABOUTME: Polls a run's status at a fixed interval until it reaches a terminal state
// ABOUTME: Bounded by a maximum attempt count; the first check happens immediately

package assistant

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	DefaultPollInterval = time.Second
	DefaultMaxAttempts  = 30
)

// PollOutcome is the classification of a poll sequence
type PollOutcome string

const (
	PollPending   PollOutcome = "pending"
	PollSucceeded PollOutcome = "succeeded"
	PollFailed    PollOutcome = "failed"
	PollTimedOut  PollOutcome = "timed_out"
)

// RunStatusGetter is the slice of Client the poller needs
type RunStatusGetter interface {
	GetRunStatus(ctx context.Context, threadID, runID string) (*Run, error)
}

// Poller waits for runs to finish.
type Poller struct {
	client      RunStatusGetter
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
}

// NewPoller creates a poller. Non-positive interval or maxAttempts fall back to
// the defaults.
func NewPoller(client RunStatusGetter, interval time.Duration, maxAttempts int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		client:      client,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger.With("component", "poller"),
	}
}

// MaxAttempts returns the configured attempt bound.
func (p *Poller) MaxAttempts() int {
	return p.maxAttempts
}

// Wait polls until the run completes or fails, the attempts run out, or ctx is
// done. It returns the final run on success, *RunFailedError on a failure
// status and *RunTimeoutError when attempts are exhausted. Errors from the
// status call are returned unchanged and end the wait.
func (p *Poller) Wait(ctx context.Context, threadID, runID string) (*Run, error) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	var lastStatus RunStatus
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			if timer == nil {
				timer = time.NewTimer(p.interval)
			} else {
				timer.Reset(p.interval)
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		run, err := p.client.GetRunStatus(ctx, threadID, runID)
		if err != nil {
			return nil, err
		}
		lastStatus = run.Status

		switch Classify(run.Status) {
		case PollSucceeded:
			p.logger.Debug("run completed", "thread_id", threadID, "run_id", runID, "attempts", attempt)
			return run, nil
		case PollFailed:
			p.logger.Warn("run failed",
				"thread_id", threadID,
				"run_id", runID,
				"status", run.Status,
				"last_error", run.LastError,
			)
			return nil, &RunFailedError{RunID: runID, Status: run.Status, LastError: run.LastError}
		}
	}

	p.logger.Warn("run did not finish in time",
		"thread_id", threadID,
		"run_id", runID,
		"attempts", p.maxAttempts,
		"last_status", lastStatus,
	)
	return nil, &RunTimeoutError{RunID: runID, Attempts: p.maxAttempts, LastStatus: lastStatus}
}

// Classify maps a runtime status onto the poll outcome vocabulary.
// Every non-terminal status, including requires_action, is pending.
func Classify(status RunStatus) PollOutcome {
	switch {
	case status.Succeeded():
		return PollSucceeded
	case status.Failed():
		return PollFailed
	default:
		return PollPending
	}
}

// OutcomeOf classifies the error returned by Wait.
func OutcomeOf(err error) PollOutcome {
	var failed *RunFailedError
	var timeout *RunTimeoutError
	switch {
	case err == nil:
		return PollSucceeded
	case errors.As(err, &failed):
		return PollFailed
	case errors.As(err, &timeout):
		return PollTimedOut
	default:
		return PollPending
	}
}
