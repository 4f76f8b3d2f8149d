package checker

import (
	"context"
	"time"
)

// DefaultRetryDelay is the pause between two attempts against the same target.
const DefaultRetryDelay = 300 * time.Millisecond

// RetryPolicy decides whether a probe result is retried, how often, and how
// long to wait between attempts.
//
// The zero value performs a single attempt. RetryPolicy holds no mutable
// state and may be shared by all workers.
type RetryPolicy struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int

	// Delay is slept between attempts. It is not part of any attempt's
	// Elapsed time.
	Delay time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration)
}

// Retryable reports whether a probe result warrants another attempt: any
// failure, any 5xx, and any negative status. 4xx responses are terminal.
func Retryable(r ProbeResult) bool {
	if r.Err != nil {
		return true
	}
	return r.StatusCode >= 500 || r.StatusCode < 0
}

// Do probes target until the result is not retryable or MaxRetries extra
// attempts have been spent.
//
// The result of the LAST attempt is returned, even when an earlier attempt
// looked better, together with the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, target string, timeout time.Duration, prober Prober) (ProbeResult, int) {
	result := prober.Probe(ctx, target, timeout)
	attempts := 1

	for retries := 0; retries < p.MaxRetries && Retryable(result); retries++ {
		p.sleep(ctx, p.Delay)
		result = prober.Probe(ctx, target, timeout)
		attempts++
	}

	return result, attempts
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(ctx, d)
		return
	}
	sleepContext(ctx, d)
}

// sleepContext blocks for d, returning early if ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
