package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pulsecheck/config"
)

// newValidateCmd validates a config file without checking any target.
func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Validate a PulseCheck configuration file without checking any target.

This command parses the YAML, expands environment variables and grids, and
validates all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  pulsecheck validate -c targets.yaml
  pulsecheck validate --config /etc/pulsecheck/targets.yaml`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}

	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	targets, err := config.BuildTargets(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	direct := len(cfg.Targets)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Workers:     %d\n", cfg.WorkerCount())
	fmt.Fprintf(out, "  Timeout:     %s\n", cfg.Timeout.Duration())
	fmt.Fprintf(out, "  Retries:     %d (delay %s)\n", cfg.Retries, cfg.RetryDelay.Duration())
	fmt.Fprintf(out, "  Output:      %s\n", cfg.Output)
	fmt.Fprintf(out, "  Targets:     %d direct + %d from grids = %d total\n",
		direct, len(targets)-direct, len(targets))
	if cfg.Kafka.Enabled() {
		fmt.Fprintf(out, "  Kafka:       topic %q on %d broker(s)\n", cfg.Kafka.Topic, len(cfg.Kafka.Brokers))
	}

	return nil
}
