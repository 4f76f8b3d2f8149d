package pulsecheck

import (
	"errors"
	"log/slog"
	"time"
)

// checkerConfig holds mutable state during Checker construction.
type checkerConfig struct {
	workers    int
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	callbacks  []func(Outcome)
}

// Option is a function that configures a [Checker] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithWorkers], [WithTimeout], [WithMaxRetries],
// [WithRetryDelay], [WithLogger], [WithOutcomeCallback].
type Option func(*checkerConfig) error

// WithWorkers sets the number of concurrent workers.
//
// The pool size is fixed for the whole run. Defaults to 16.
//
// Returns an error if n is zero or negative.
func WithWorkers(n int) Option {
	return func(cfg *checkerConfig) error {
		if n <= 0 {
			return errors.New("workers must be positive")
		}
		cfg.workers = n
		return nil
	}
}

// WithTimeout sets the per-attempt timeout.
//
// The timeout bounds connecting, sending the request and receiving the
// response independently. Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) Option {
	return func(cfg *checkerConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithMaxRetries sets how many extra attempts a target gets after a network
// failure or a 5xx response. 4xx responses are never retried.
// Defaults to 0 (a single attempt).
//
// Returns an error if n is negative.
func WithMaxRetries(n int) Option {
	return func(cfg *checkerConfig) error {
		if n < 0 {
			return errors.New("max retries cannot be negative")
		}
		cfg.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the pause between two attempts against the same
// target. Defaults to 300ms. Zero retries immediately.
//
// Returns an error if the duration is negative.
func WithRetryDelay(d time.Duration) Option {
	return func(cfg *checkerConfig) error {
		if d < 0 {
			return errors.New("retry delay cannot be negative")
		}
		cfg.retryDelay = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Checker.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *checkerConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithOutcomeCallback registers a function called for every outcome as it
// arrives, before [Checker.Run] returns.
//
// Multiple callbacks run in registration order. Callbacks are invoked from a
// single goroutine, so a slow callback delays the consumption of later
// outcomes (workers keep probing; the collector is buffered). Panics are
// recovered and logged.
//
// Nil callbacks are silently ignored.
func WithOutcomeCallback(cb func(Outcome)) Option {
	return func(cfg *checkerConfig) error {
		if cb == nil {
			return nil
		}
		cfg.callbacks = append(cfg.callbacks, cb)
		return nil
	}
}
