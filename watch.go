package pulsecheck

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Watcher repeats a check run over a fixed target set at a fixed interval.
//
// The first round starts immediately. Rounds never overlap: when a round
// takes longer than the interval, the next one starts as soon as it ends.
// Each round produces an independent [Report] with its own run ID.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Watcher struct {
	checker  *Checker
	targets  []string
	interval time.Duration
	reports  chan *Report
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
}

// NewWatcher creates a [Watcher] that checks targets every interval.
//
// Returns [ErrNoTargets] if targets is empty. The target slice is copied.
func (c *Checker) NewWatcher(targets []string, interval time.Duration) (*Watcher, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if interval <= 0 {
		return nil, errors.New("watch interval must be positive")
	}

	return &Watcher{
		checker:  c,
		targets:  append([]string(nil), targets...),
		interval: interval,
		reports:  make(chan *Report, 1),
		logger:   c.logger,
	}, nil
}

// Reports returns a receive-only channel that emits one [Report] per round.
//
// The channel is closed when the watcher stops. A round interrupted by
// Stop or by cancellation of the parent context is not emitted.
func (w *Watcher) Reports() <-chan *Report {
	return w.reports
}

// Start begins the round loop in a background goroutine.
//
// Start is non-blocking and idempotent. If Stop was called before Start,
// Start is a no-op. If ctx is nil, context.Background() is used.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	runCtx := w.ctx // capture under lock to avoid race
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		defer w.closeOnce.Do(func() { close(w.reports) })

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for round := 1; ; round++ {
			if !w.runRound(runCtx, round) {
				return
			}

			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// runRound performs one check run and emits its report. It returns false
// once the watcher should exit.
func (w *Watcher) runRound(ctx context.Context, round int) bool {
	w.logger.Debug("watch round starting", "round", round, "targets", len(w.targets))

	rep, err := w.checker.Run(ctx, w.targets)
	if err != nil {
		w.logger.Error("watch round failed", "round", round, "error", err.Error())
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	select {
	case w.reports <- rep:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop halts the watcher and waits for the current round to finish.
//
// In-flight probes are cancelled, so Stop returns within roughly one
// probe timeout. Stop is idempotent and safe to call before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		if w.cancel != nil {
			w.cancel()
		}
	}
	w.mu.Unlock()

	w.wg.Wait()

	// ensure channel is closed even if Start() was never called
	w.closeOnce.Do(func() { close(w.reports) })
}
