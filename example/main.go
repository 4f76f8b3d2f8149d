package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/pulsecheck"
	"github.com/jpalmerr/pulsecheck/report"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockServer(":9999")
	time.Sleep(100 * time.Millisecond)

	targets := []string{
		"http://localhost:9999/ok",
		"http://localhost:9999/slow",
		"http://localhost:9999/down",
		"http://localhost:9999/missing",
	}

	// grid API: 3 ids expand to 3 flaky targets that succeed on retry
	flaky, err := pulsecheck.ExpandGrid("http://localhost:9999/flaky?id={{.id}}", map[string][]string{
		"id": {"a", "b", "c"},
	})
	if err != nil {
		slog.Error("failed to expand grid", "error", err)
		os.Exit(1)
	}
	targets = append(targets, flaky...)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	checker, err := pulsecheck.New(
		pulsecheck.WithWorkers(4),
		pulsecheck.WithTimeout(500*time.Millisecond),
		pulsecheck.WithMaxRetries(1),
		pulsecheck.WithRetryDelay(100*time.Millisecond),
		pulsecheck.WithLogger(logger),
		pulsecheck.WithOutcomeCallback(func(o pulsecheck.Outcome) {
			if o.Kind() != pulsecheck.KindOK {
				fmt.Fprintf(os.Stderr, "unhealthy: %s (%s)\n", o.Target, o.Kind())
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create checker", "error", err)
		os.Exit(1)
	}

	// set up context with signal handling so Ctrl+C cuts the run short
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := checker.Run(ctx, targets)
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	if err := report.Write(os.Stdout, report.FormatTable, rep.Outcomes); err != nil {
		slog.Error("failed to write report", "error", err)
		os.Exit(1)
	}
	_ = report.WriteSummary(os.Stdout, rep)
}
