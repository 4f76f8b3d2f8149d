// Package main is the entry point for the pulsecheck CLI.
//
// PulseCheck can be used either as a library (SDK) or as a standalone binary.
// This CLI provides the standalone binary approach.
//
// Usage:
//
//	pulsecheck check -w 32 -t 2000 -- https://a.example https://b.example
//	pulsecheck check -c targets.yaml --json
//	cat urls.txt | pulsecheck check -r 2
//	pulsecheck watch --interval 1m -c targets.yaml
//	pulsecheck validate -c targets.yaml
//	pulsecheck version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/pulsecheck"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitNoTargets = 2
)

// newRootCmd builds the base command. It just displays help; actual
// functionality is in subcommands.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pulsecheck",
		Short: "Check many HTTP targets concurrently",
		Long: `PulseCheck probes HTTP targets concurrently with a fixed pool of workers.

Every target gets exactly one outcome: its status code and response time,
or -1 and an error when no response was received. Network failures and
5xx responses can be retried.

Quick start:
  pulsecheck check -- https://example.com https://example.org
  pulsecheck check -c targets.yaml -o yaml
  cat urls.txt | pulsecheck check --json
  pulsecheck watch --interval 1m -c targets.yaml`,
		SilenceUsage: true,
	}

	root.AddCommand(newCheckCmd(), newWatchCmd(), newValidateCmd(), newVersionCmd())
	return root
}

// newVersionCmd prints version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this pulsecheck binary.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pulsecheck %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

// newLogger creates a JSON logger for CLI use. Logs go to w so stdout
// carries only the report.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// execute runs the CLI and maps the result to a process exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		// cobra already printed the error
		if errors.Is(err, pulsecheck.ErrNoTargets) {
			return exitNoTargets
		}
		return exitError
	}
	return exitOK
}

func main() {
	// cancel in-flight checks on SIGINT/SIGTERM; the report still covers every target
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
