package pulsecheck

import (
	"time"

	"github.com/jpalmerr/pulsecheck/internal/checker"
)

// NoResponse is the status code reported for a target that never returned
// an HTTP response (connection refused, DNS failure, timeout).
const NoResponse = checker.NoResponse

// Kind classifies an [Outcome] from the operator's point of view.
//
// Kind is a string type so it reads well in logs and serialized reports.
type Kind string

const (
	// KindOK indicates a 1xx, 2xx or 3xx response.
	KindOK Kind = "ok"

	// KindClientError indicates a 4xx response. The probe itself worked,
	// but the target is down from the caller's perspective. Never retried.
	KindClientError Kind = "client_error"

	// KindServerError indicates a status >= 500. Retried when retries are enabled.
	KindServerError Kind = "server_error"

	// KindNetworkFailure indicates no response was received at all.
	KindNetworkFailure Kind = "network_failure"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Outcome is the final result of checking one target.
//
// Exactly one Outcome exists per target after a run. It describes the LAST
// probe attempt for that target, even when retries were made.
type Outcome struct {
	// Target is the probed target, exactly as supplied.
	Target string `json:"url" yaml:"url"`

	// StatusCode is the HTTP status code, or [NoResponse].
	StatusCode int `json:"status_code" yaml:"status_code"`

	// ResponseTimeMs is the duration of the last attempt in whole milliseconds.
	ResponseTimeMs int64 `json:"response_time_ms" yaml:"response_time_ms"`

	// Timestamp is when the outcome was finalized, in Unix seconds.
	Timestamp int64 `json:"timestamp" yaml:"timestamp"`

	// Error describes why no response was received. It is non-nil iff
	// StatusCode is NoResponse.
	Error *string `json:"error" yaml:"error"`

	// Attempts is the number of probes made for this target.
	Attempts int `json:"attempts" yaml:"attempts"`
}

// Kind classifies the outcome.
func (o Outcome) Kind() Kind {
	if o.Error != nil {
		return KindNetworkFailure
	}
	return fromCheckerKind(checker.ClassifyStatus(o.StatusCode))
}

// Report is the complete, unordered result of one [Checker.Run].
type Report struct {
	// RunID uniquely identifies the run in logs and published messages.
	RunID string

	// StartedAt is when the first worker was started.
	StartedAt time.Time

	// Duration is the wall time of the whole run.
	Duration time.Duration

	// Outcomes holds one entry per target, in completion order.
	Outcomes []Outcome
}

// Summary counts a report's outcomes by [Kind].
type Summary struct {
	Total           int
	OK              int
	ClientErrors    int
	ServerErrors    int
	NetworkFailures int
}

// Summary tallies the report's outcomes.
func (r *Report) Summary() Summary {
	s := Summary{Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		switch o.Kind() {
		case KindOK:
			s.OK++
		case KindClientError:
			s.ClientErrors++
		case KindServerError:
			s.ServerErrors++
		case KindNetworkFailure:
			s.NetworkFailures++
		}
	}
	return s
}

// toPublicOutcome converts an engine outcome to the public type.
func toPublicOutcome(o checker.Outcome) Outcome {
	var errStr *string
	if o.Err != nil {
		s := o.Err.Error()
		errStr = &s
	}

	return Outcome{
		Target:         o.Target,
		StatusCode:     o.StatusCode,
		ResponseTimeMs: o.Elapsed.Milliseconds(),
		Timestamp:      o.FinishedAt.Unix(),
		Error:          errStr,
		Attempts:       o.Attempts,
	}
}

func fromCheckerKind(k checker.Kind) Kind {
	switch k {
	case checker.KindOK:
		return KindOK
	case checker.KindServerError:
		return KindServerError
	case checker.KindNetworkFailure:
		return KindNetworkFailure
	default:
		return KindClientError
	}
}
