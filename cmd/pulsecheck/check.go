package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pulsecheck"
	"github.com/jpalmerr/pulsecheck/config"
	"github.com/jpalmerr/pulsecheck/internal/sink"
	"github.com/jpalmerr/pulsecheck/report"
)

type checkFlags struct {
	configFile   string
	workers      int
	timeoutMs    int
	retries      int
	retryDelayMs int
	json         bool
	output       string
	kafkaBrokers []string
	kafkaTopic   string
	verbose      bool
}

// newCheckCmd runs one check pass over a set of targets.
func newCheckCmd() *cobra.Command {
	f := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [flags] [--] [target...]",
		Short: "Check targets and print one outcome per target",
		Long: `Check every target once (plus retries) and print the outcomes.

Targets are taken from the arguments, else from the config file's targets
and grids, else from stdin (one per line, # comments allowed).

Flags that are set explicitly override values from the config file.

Exit codes:
  0 - Run completed (whatever the health of the targets)
  1 - Invalid flags or config, or output failure
  2 - No targets supplied

Example:
  pulsecheck check -w 32 -t 2000 -r 1 -- https://a.example https://b.example
  pulsecheck check -c targets.yaml -o yaml
  cat urls.txt | pulsecheck check --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, f)
		},
	}

	addRunFlags(cmd, f)

	return cmd
}

// addRunFlags registers the flags shared by check and watch.
func addRunFlags(cmd *cobra.Command, f *checkFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.configFile, "config", "c", "", "path to config file")
	flags.IntVarP(&f.workers, "workers", "w", pulsecheck.DefaultWorkers, "number of concurrent workers")
	flags.IntVarP(&f.timeoutMs, "timeout", "t", int(pulsecheck.DefaultTimeout/time.Millisecond), "per-attempt timeout in milliseconds")
	flags.IntVarP(&f.retries, "retries", "r", 0, "extra attempts after a network failure or 5xx")
	flags.IntVar(&f.retryDelayMs, "retry-delay", int(pulsecheck.DefaultRetryDelay/time.Millisecond), "pause between attempts in milliseconds")
	flags.BoolVar(&f.json, "json", false, "print outcomes as JSON (same as -o json)")
	flags.StringVarP(&f.output, "output", "o", "table", "output format: table, json, or yaml")
	flags.StringSliceVar(&f.kafkaBrokers, "kafka-broker", nil, "publish outcomes to these Kafka brokers (host:port)")
	flags.StringVar(&f.kafkaTopic, "kafka-topic", "", "Kafka topic for published outcomes")
	flags.BoolVar(&f.verbose, "verbose", false, "log every outcome and pool state change")
	cmd.MarkFlagsMutuallyExclusive("json", "output")
}

// runSetup is everything a check or watch needs once flags and config
// have been resolved.
type runSetup struct {
	cfg       *config.Config
	format    report.Format
	targets   []string
	logger    *slog.Logger
	checker   *pulsecheck.Checker
	publisher *sink.KafkaPublisher
}

// close releases the Kafka writer, if any.
func (s *runSetup) close() {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
}

func prepareRun(cmd *cobra.Command, args []string, f *checkFlags) (*runSetup, error) {
	cfg := config.Default()
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if err := applyFlags(cmd, cfg, f); err != nil {
		return nil, err
	}

	format, err := report.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	targets, err := resolveTargets(cmd, cfg, args)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		cmd.PrintErrln(cmd.UsageString())
		return nil, pulsecheck.ErrNoTargets
	}

	logger := newLogger(cmd.ErrOrStderr(), f.verbose)

	opts := append(cfg.Options(), pulsecheck.WithLogger(logger))
	checker, err := pulsecheck.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	setup := &runSetup{
		cfg:     cfg,
		format:  format,
		targets: targets,
		logger:  logger,
		checker: checker,
	}
	if cfg.Kafka.Enabled() {
		setup.publisher = sink.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	return setup, nil
}

func runCheck(cmd *cobra.Command, args []string, f *checkFlags) error {
	setup, err := prepareRun(cmd, args, f)
	if err != nil {
		return err
	}
	defer setup.close()

	rep, err := setup.checker.Run(cmd.Context(), setup.targets)
	if err != nil {
		return err
	}
	return emitReport(cmd, setup, rep)
}

// emitReport writes the report to stdout, the table summary to stderr, and
// publishes to Kafka when configured.
func emitReport(cmd *cobra.Command, setup *runSetup, rep *pulsecheck.Report) error {
	if err := report.Write(cmd.OutOrStdout(), setup.format, rep.Outcomes); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if setup.format == report.FormatTable {
		if err := report.WriteSummary(cmd.ErrOrStderr(), rep); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if setup.publisher != nil {
		if err := setup.publisher.Publish(cmd.Context(), rep); err != nil {
			return err
		}
		setup.logger.Info("report published",
			"run_id", rep.RunID,
			"topic", setup.cfg.Kafka.Topic,
			"outcomes", len(rep.Outcomes),
		)
	}
	return nil
}

// applyFlags copies explicitly set flags over the config values.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f *checkFlags) error {
	flags := cmd.Flags()

	if flags.Changed("workers") {
		w := f.workers
		cfg.Workers = &w
	}
	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration(time.Duration(f.timeoutMs) * time.Millisecond)
	}
	if flags.Changed("retries") {
		cfg.Retries = f.retries
	}
	if flags.Changed("retry-delay") {
		d := config.Duration(time.Duration(f.retryDelayMs) * time.Millisecond)
		cfg.RetryDelay = &d
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if f.json {
		cfg.Output = string(report.FormatJSON)
	}
	if flags.Changed("kafka-broker") {
		cfg.Kafka.Brokers = f.kafkaBrokers
	}
	if flags.Changed("kafka-topic") {
		cfg.Kafka.Topic = f.kafkaTopic
	}

	if cfg.Kafka.Enabled() && cfg.Kafka.Topic == "" {
		return fmt.Errorf("--kafka-topic is required when Kafka brokers are set")
	}
	return nil
}

// resolveTargets picks the target source: arguments, then config, then stdin.
func resolveTargets(cmd *cobra.Command, cfg *config.Config, args []string) ([]string, error) {
	if len(args) > 0 {
		targets := make([]string, 0, len(args))
		for _, a := range args {
			if a = strings.TrimSpace(a); a != "" {
				targets = append(targets, a)
			}
		}
		return targets, nil
	}

	targets, err := config.BuildTargets(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build targets: %w", err)
	}
	if len(targets) > 0 {
		return targets, nil
	}

	return pulsecheck.ParseTargets(cmd.InOrStdin())
}
