package balancecheck

import (
	"errors"
	"log/slog"
)

// checkerConfig holds mutable state during Checker construction.
type checkerConfig struct {
	maxConcurrency   int
	logger           *slog.Logger
	outcomeCallbacks []func(Outcome)
}

// Option is a function that configures a [Checker] during construction.
//
// Built-in options: [WithMaxConcurrency], [WithLogger], [WithOutcomeCallback].
type Option func(*checkerConfig) error

// WithMaxConcurrency limits how many requests a single [Checker.Run] keeps
// in flight. Zero, the default, starts every request immediately.
//
// Returns an error if the value is negative.
func WithMaxConcurrency(n int) Option {
	return func(cfg *checkerConfig) error {
		if n < 0 {
			return errors.New("max concurrency cannot be negative")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used. Failure details are only ever written to this logger, never to
// report text.
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

// WithOutcomeCallback registers a function called for every [Outcome]
// produced by [Checker.Run], in service order, after all queries settled.
//
// Callbacks run synchronously on the caller's goroutine. Panics within
// callbacks are recovered and logged. Nil callbacks are ignored.
func WithOutcomeCallback(cb func(Outcome)) Option {
	return func(cfg *checkerConfig) error {
		if cb == nil {
			return nil
		}
		cfg.outcomeCallbacks = append(cfg.outcomeCallbacks, cb)
		return nil
	}
}
