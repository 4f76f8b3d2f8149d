// Package report renders PulseCheck outcomes for operators and tools.
//
// Three formats are supported:
//
//   - table: fixed-width columns URL, SC, RT(ms), UNIX_TS, ERROR
//   - json:  a pretty-printed array, one object per outcome
//   - yaml:  a sequence, one mapping per outcome
//
// The structured formats use the field names url, status_code,
// response_time_ms, timestamp, error and attempts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/pulsecheck"
)

// Format selects how outcomes are rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ruleWidth is the width of the line under the table header.
const ruleWidth = 95

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table, json, or yaml)", s)
	}
}

// Write renders outcomes to w in the given format.
func Write(w io.Writer, format Format, outcomes []pulsecheck.Outcome) error {
	// structured formats render an empty list, never null
	if outcomes == nil {
		outcomes = []pulsecheck.Outcome{}
	}

	switch format {
	case FormatTable:
		return writeTable(w, outcomes)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcomes); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(outcomes); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeTable(w io.Writer, outcomes []pulsecheck.Outcome) error {
	if _, err := fmt.Fprintf(w, "%-40s  %3s  %6s    %s  %s\n", "URL", "SC", "RT(ms)", "UNIX_TS", "ERROR"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", ruleWidth)); err != nil {
		return err
	}

	for _, o := range outcomes {
		errText := "-"
		if o.Error != nil {
			errText = *o.Error
		}
		if _, err := fmt.Fprintf(w, "%-40s  %3d  %6d ms  %d  %s\n",
			o.Target, o.StatusCode, o.ResponseTimeMs, o.Timestamp, errText); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary prints a one-line tally of a report.
func WriteSummary(w io.Writer, r *pulsecheck.Report) error {
	s := r.Summary()
	_, err := fmt.Fprintf(w, "%d checked in %s: %d ok, %d client errors, %d server errors, %d network failures\n",
		s.Total, r.Duration.Round(time.Millisecond), s.OK, s.ClientErrors, s.ServerErrors, s.NetworkFailures)
	return err
}
