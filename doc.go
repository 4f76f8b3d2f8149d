// Package pulsecheck checks the health of many HTTP endpoints at once.
//
// Given a batch of targets, PulseCheck reports each target's reachability,
// HTTP status and response latency. Targets are drained from a shared queue
// by a fixed-size pool of workers rather than one goroutine per target, so
// the load placed on the network and on the checked services stays bounded.
//
// # Quick Start
//
//	c, _ := pulsecheck.New(pulsecheck.WithWorkers(8))
//	report, err := c.Run(ctx, []string{
//	    "https://api.example.com/health",
//	    "https://www.example.com",
//	})
//	if err != nil {
//	    return err
//	}
//	for _, o := range report.Outcomes {
//	    fmt.Println(o.Target, o.StatusCode, o.ResponseTimeMs)
//	}
//
// # Retries
//
// With [WithMaxRetries], network failures and 5xx responses are retried
// after a short fixed delay ([WithRetryDelay], 300ms by default). 4xx
// responses are final. The reported [Outcome] always describes the LAST
// attempt, not the best one, so a target that fails every attempt reports
// its final failure.
//
// # Targets
//
// Targets are opaque strings, normally URLs. [ParseTargets] reads them from
// newline-delimited input (blank lines and '#' comments are skipped), and
// [ExpandGrid] generates them from a URL template and dimensions.
//
// # Watching
//
// [Checker.NewWatcher] repeats a run at a fixed interval and emits one
// [Report] per round until stopped.
//
// # Architecture
//
//   - internal/checker: work queue, worker pool, probe and retry policy
//   - internal/sink: optional publication of reports to Kafka
//   - config: YAML run configuration for the CLI
//   - report: table, JSON and YAML rendering of outcomes
//
// The internal packages are not part of the public API and may change
// without notice.
package pulsecheck
