// Package retry provides exponential-backoff retries for cloud API calls.
//
// AWS deletions in particular fail transiently while dependents drain
// (DependencyViolation on a VPC whose instances are still terminating);
// callers wrap those paths in Do and mark genuinely terminal errors with
// Fatal so they are surfaced immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Options holds retry configuration.
type Options struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option is a functional option for retry configuration.
type Option func(*Options)

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithInitialDelay sets the initial delay between retries.
func WithInitialDelay(d time.Duration) Option {
	return func(o *Options) { o.InitialDelay = d }
}

// WithMaxDelay caps the delay between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(o *Options) { o.MaxDelay = d }
}

// WithMultiplier sets the backoff growth factor.
func WithMultiplier(m float64) Option {
	return func(o *Options) { o.Multiplier = m }
}

// Do executes operation with exponential backoff, up to MaxRetries
// additional attempts. Context cancellation is respected between attempts.
// Errors wrapped with Fatal are returned without further retries.
func Do(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := &Options{
		MaxRetries:   5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled after %d attempts: %w", attempt+1, ctx.Err())
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * cfg.Multiplier)
				if delay > cfg.MaxDelay {
					delay = cfg.MaxDelay
				}
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

// FatalError wraps an error to mark it as non-retryable.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal marks an error as non-retryable.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err was marked with Fatal.
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
