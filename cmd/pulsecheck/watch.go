package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const defaultWatchInterval = 30 * time.Second

// newWatchCmd repeats a check at a fixed interval until interrupted.
func newWatchCmd() *cobra.Command {
	f := &checkFlags{}
	var (
		interval time.Duration
		rounds   int
	)

	cmd := &cobra.Command{
		Use:   "watch [flags] [--] [target...]",
		Short: "Check targets repeatedly at a fixed interval",
		Long: `Check every target at a fixed interval and print one report per round.

Targets and flags are resolved exactly as for check. The first round starts
immediately; rounds never overlap. Each round has its own run ID and, when
Kafka is configured, is published as its own batch.

The command runs until interrupted (Ctrl+C), receives SIGTERM, or has
completed --rounds rounds.

Example:
  pulsecheck watch --interval 1m -c targets.yaml
  pulsecheck watch --interval 10s --rounds 6 --json -- https://a.example`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}
			if rounds < 0 {
				return fmt.Errorf("--rounds cannot be negative, got %d", rounds)
			}
			return runWatch(cmd, args, f, interval, rounds)
		},
	}

	addRunFlags(cmd, f)
	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "time between round starts")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "stop after this many rounds (0 = until interrupted)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, f *checkFlags, interval time.Duration, rounds int) error {
	setup, err := prepareRun(cmd, args, f)
	if err != nil {
		return err
	}
	defer setup.close()

	watcher, err := setup.checker.NewWatcher(setup.targets, interval)
	if err != nil {
		return err
	}

	setup.logger.Info("watch starting",
		"targets", len(setup.targets),
		"interval", interval.String(),
		"rounds", rounds,
	)

	watcher.Start(cmd.Context())
	defer watcher.Stop()

	completed := 0
	for rep := range watcher.Reports() {
		if err := emitReport(cmd, setup, rep); err != nil {
			return err
		}
		completed++
		if rounds > 0 && completed >= rounds {
			break
		}
	}

	setup.logger.Info("watch stopped", "rounds", completed)
	return nil
}
