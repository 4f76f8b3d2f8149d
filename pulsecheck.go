package pulsecheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/pulsecheck/internal/checker"
)

const (
	// DefaultWorkers is the worker pool size used when none is configured.
	DefaultWorkers = 16

	// DefaultTimeout is the per-attempt timeout used when none is configured.
	DefaultTimeout = 5 * time.Second

	// DefaultRetryDelay is the pause between attempts against one target.
	DefaultRetryDelay = checker.DefaultRetryDelay
)

// ErrNoTargets is returned by [Checker.Run] when there is nothing to check.
var ErrNoTargets = errors.New("no targets supplied")

// Checker probes a batch of targets with a fixed-size worker pool.
//
// A Checker is created with [New] and is immutable afterwards; it can be
// reused for any number of runs. Each call to [Checker.Run] is independent.
//
//	c, err := pulsecheck.New(
//	    pulsecheck.WithWorkers(8),
//	    pulsecheck.WithTimeout(2 * time.Second),
//	    pulsecheck.WithMaxRetries(1),
//	)
//	if err != nil {
//	    return err
//	}
//	report, err := c.Run(ctx, []string{"https://example.com"})
type Checker struct {
	workers    int
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	callbacks  []func(Outcome)

	// prober replaces the HTTP client in tests
	prober checker.Prober
}

// New creates a new [Checker] with the given options.
//
// Defaults:
//   - Workers: 16
//   - Timeout: 5 seconds per attempt
//   - Max retries: 0
//   - Retry delay: 300 milliseconds
func New(opts ...Option) (*Checker, error) {
	cfg := &checkerConfig{
		workers:    DefaultWorkers,
		timeout:    DefaultTimeout,
		retryDelay: DefaultRetryDelay,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Checker{
		workers:    cfg.workers,
		timeout:    cfg.timeout,
		maxRetries: cfg.maxRetries,
		retryDelay: cfg.retryDelay,
		logger:     logger,
		callbacks:  cfg.callbacks,
	}, nil
}

// Run checks every target and returns once all of them have an outcome.
//
// Targets are handed to the worker pool through a shared queue; each one is
// probed by exactly one worker. Run blocks until every worker has exited and
// then returns a [Report] with exactly one [Outcome] per target. Outcomes
// are in completion order, which is not meaningful.
//
// Failures of individual targets are reported in their outcomes and never
// abort the run. Cancelling ctx makes pending probes fail quickly; the
// report still covers every target.
//
// Returns [ErrNoTargets] if targets is empty; no worker is started then.
func (c *Checker) Run(ctx context.Context, targets []string) (*Report, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)
	logger.Info("run starting",
		"targets", len(targets),
		"workers", c.workers,
		"timeout", c.timeout.String(),
		"max_retries", c.maxRetries,
	)

	prober := c.prober
	if prober == nil {
		client := checker.NewClient()
		defer client.Close()
		prober = client
	}

	pool := checker.NewPool(c.engineConfig(), prober, logger)

	report := &Report{
		RunID:     runID,
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, 0, len(targets)),
	}

	pool.Run(ctx, checker.NewQueue(targets)).Drain(func(o checker.Outcome) {
		outcome := toPublicOutcome(o)
		report.Outcomes = append(report.Outcomes, outcome)

		for _, cb := range c.callbacks {
			invokeCallbackSafe(cb, outcome, logger)
		}

		logOutcome(logger, o)
	})
	report.Duration = time.Since(report.StartedAt)

	if ctx.Err() != nil {
		logger.Warn("run interrupted", "error", ctx.Err().Error())
	}

	s := report.Summary()
	logger.Info("run complete",
		"outcomes", s.Total,
		"ok", s.OK,
		"client_errors", s.ClientErrors,
		"server_errors", s.ServerErrors,
		"network_failures", s.NetworkFailures,
		"duration_ms", report.Duration.Milliseconds(),
	)

	return report, nil
}

// Workers returns the configured worker pool size.
func (c *Checker) Workers() int {
	return c.workers
}

// Timeout returns the configured per-attempt timeout.
func (c *Checker) Timeout() time.Duration {
	return c.timeout
}

// MaxRetries returns the configured number of extra attempts per target.
func (c *Checker) MaxRetries() int {
	return c.maxRetries
}

// engineConfig converts the checker settings to the pool's run configuration.
func (c *Checker) engineConfig() checker.Config {
	delay := c.retryDelay
	if delay == 0 {
		delay = -1 // the engine reads zero as "use the default"
	}
	return checker.Config{
		Workers:    c.workers,
		Timeout:    c.timeout,
		MaxRetries: c.maxRetries,
		RetryDelay: delay,
	}
}

// logOutcome logs one outcome (DEBUG level for healthy targets to reduce noise).
func logOutcome(logger *slog.Logger, o checker.Outcome) {
	logAttrs := []any{
		"target", o.Target,
		"kind", o.Kind().String(),
		"status_code", o.StatusCode,
		"latency_ms", o.Elapsed.Milliseconds(),
		"attempts", o.Attempts,
	}
	if o.Err != nil {
		logger.Warn("check completed with error", append(logAttrs, "error", o.Err.Error())...)
		return
	}
	logger.Debug("check completed", logAttrs...)
}

// invokeCallbackSafe calls an outcome callback with panic recovery.
// The panic is logged with a correlation ID and does not propagate.
func invokeCallbackSafe(cb func(Outcome), outcome Outcome, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("outcome callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"target", outcome.Target,
			)
		}
	}()
	cb(outcome)
}
