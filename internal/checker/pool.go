package checker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Config is the run configuration shared read-only by all workers.
type Config struct {
	// Workers is the number of concurrent workers. Values below 1 mean 1.
	Workers int

	// Timeout bounds each phase of every probe attempt.
	Timeout time.Duration

	// MaxRetries is the number of extra attempts allowed per target.
	MaxRetries int

	// RetryDelay is the pause between attempts. Zero means DefaultRetryDelay;
	// use a negative value to retry without pausing.
	RetryDelay time.Duration
}

// State is the lifecycle stage of a [Pool] run.
type State int32

const (
	// StateSeeded: queue populated, no worker started.
	StateSeeded State = iota
	// StateRunning: workers are claiming and probing targets.
	StateRunning
	// StateDraining: the queue is empty, in-flight probes are finishing.
	StateDraining
	// StateComplete: every worker has exited; the result set is final.
	StateComplete
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSeeded:
		return "seeded"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Pool runs a fixed number of workers over a [Queue].
//
// Each worker loops: claim a target, probe it through the retry policy,
// publish exactly one [Outcome], repeat until the queue is empty. A Pool is
// single-shot; states only move forward.
type Pool struct {
	workers int
	timeout time.Duration
	retry   RetryPolicy
	prober  Prober
	logger  *slog.Logger
	now     func() time.Time

	state atomic.Int32
}

// NewPool creates a [Pool] in [StateSeeded].
func NewPool(cfg Config, prober Prober, logger *slog.Logger) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	delay := cfg.RetryDelay
	switch {
	case delay == 0:
		delay = DefaultRetryDelay
	case delay < 0:
		delay = 0
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		workers: workers,
		timeout: cfg.Timeout,
		retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Delay:      delay,
		},
		prober: prober,
		logger: logger,
		now:    time.Now,
	}
}

// State returns the current lifecycle state.
func (p *Pool) State() State {
	return State(p.state.Load())
}

// Run starts the workers and returns the collector they publish to.
//
// Run does not block. The collector's channel is closed once every worker
// has exited, which is the point at which the result set is complete.
// Calling Run a second time returns an already-closed, empty collector.
func (p *Pool) Run(ctx context.Context, queue *Queue) *Collector {
	if !p.advance(StateSeeded, StateRunning) {
		p.logger.Warn("pool already ran, ignoring", "state", p.State().String())
		c := newCollector(0)
		c.close()
		return c
	}

	collector := newCollector(queue.Len())

	var wg sync.WaitGroup
	wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func(id int) {
			defer wg.Done()
			p.work(ctx, id, queue, collector)
		}(i)
	}

	go func() {
		wg.Wait()
		// the state is final before consumers can observe the closed channel
		p.state.Store(int32(StateComplete))
		p.logger.Debug("pool state changed", "state", StateComplete.String())
		collector.close()
	}()

	return collector
}

// work is the loop run by a single worker.
func (p *Pool) work(ctx context.Context, id int, queue *Queue, out *Collector) {
	claimed := 0
	for {
		target, ok := queue.Claim()
		if !ok {
			p.advance(StateRunning, StateDraining)
			p.logger.Debug("worker exiting", "worker", id, "claimed", claimed)
			return
		}
		claimed++

		res, attempts := p.retry.Do(ctx, target, p.timeout, p.prober)
		out.Publish(newOutcome(target, res, attempts, p.now()))
	}
}

// advance moves the pool from one state to the next. It reports false when
// the pool was not in from.
func (p *Pool) advance(from, to State) bool {
	if !p.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	p.logger.Debug("pool state changed", "state", to.String())
	return true
}
