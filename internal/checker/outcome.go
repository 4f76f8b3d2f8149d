package checker

import (
	"errors"
	"time"
)

// errNoResponse backs outcomes whose prober reported a negative status
// without an error.
var errNoResponse = errors.New("no response received")

// Kind classifies an [Outcome] from the caller's point of view.
type Kind int

const (
	// KindOK is any 1xx, 2xx or 3xx response.
	KindOK Kind = iota

	// KindClientError is a 4xx response (or any other non-5xx code outside
	// the OK range). It is terminal and never retried.
	KindClientError

	// KindServerError is a response with status >= 500. Retried.
	KindServerError

	// KindNetworkFailure means no response was received. Retried.
	KindNetworkFailure
)

// String returns the lower-case name used in logs and reports.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindClientError:
		return "client_error"
	case KindServerError:
		return "server_error"
	case KindNetworkFailure:
		return "network_failure"
	default:
		return "unknown"
	}
}

// ClassifyStatus maps a status code to its [Kind].
func ClassifyStatus(code int) Kind {
	switch {
	case code < 0:
		return KindNetworkFailure
	case code >= 500:
		return KindServerError
	case code >= 100 && code < 400:
		return KindOK
	default:
		return KindClientError
	}
}

// Outcome is the final result for one target.
//
// Outcomes are built completely by the worker that probed the target and
// never modified after they are published.
type Outcome struct {
	// Target is the probed target, exactly as it was enqueued.
	Target string

	// StatusCode is the HTTP status of the last attempt, or NoResponse.
	StatusCode int

	// Elapsed is the duration of the last attempt only.
	Elapsed time.Duration

	// FinishedAt is when the outcome was finalized.
	FinishedAt time.Time

	// Err is set iff StatusCode is NoResponse.
	Err error

	// Attempts is the number of probes made for this target.
	Attempts int
}

// Kind classifies the outcome.
func (o Outcome) Kind() Kind {
	if o.Err != nil {
		return KindNetworkFailure
	}
	return ClassifyStatus(o.StatusCode)
}

// newOutcome finalizes the last probe result for target.
func newOutcome(target string, res ProbeResult, attempts int, finishedAt time.Time) Outcome {
	status, err := res.StatusCode, res.Err
	switch {
	case err != nil:
		status = NoResponse
	case status < 0:
		status, err = NoResponse, errNoResponse
	}
	return Outcome{
		Target:     target,
		StatusCode: status,
		Elapsed:    res.Elapsed,
		FinishedAt: finishedAt,
		Err:        err,
		Attempts:   attempts,
	}
}
