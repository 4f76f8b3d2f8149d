// Package checker is the concurrency engine behind PulseCheck.
//
// A run seeds a [Queue] with every target, then a [Pool] of a fixed number
// of workers drains it. Each worker claims one target at a time, probes it
// through the [RetryPolicy] with a [Prober] (normally a [Client]), and
// publishes exactly one [Outcome] to the run's [Collector]. The caller
// drains the collector, which closes once all workers have exited.
//
// The main components are:
//
//   - [Client]: single-attempt HTTP GET with per-phase timeouts
//   - [RetryPolicy]: retries failures and 5xx responses, last attempt wins
//   - [Queue]: mutex-guarded list of unclaimed targets
//   - [Pool]: fixed-size worker pool with a forward-only [State]
//   - [Collector]: many-to-one outcome channel
//
// Users of the pulsecheck library should not need to interact with this
// package directly.
package checker
