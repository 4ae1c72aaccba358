package workflow

import (
	"context"
	"time"
)

// Waiter polls a handle's external status until it becomes ready, fails,
// or a deadline elapses. Polling uses a multiplicative backoff between the
// initial and maximum intervals.
type Waiter struct {
	provider    Provider
	observer    Observer
	interval    time.Duration
	maxInterval time.Duration
	multiplier  float64
}

// WaiterOption customizes a Waiter.
type WaiterOption func(*Waiter)

// WithPollInterval sets the initial polling interval.
func WithPollInterval(d time.Duration) WaiterOption {
	return func(w *Waiter) { w.interval = d }
}

// WithMaxPollInterval caps the backoff interval.
func WithMaxPollInterval(d time.Duration) WaiterOption {
	return func(w *Waiter) { w.maxInterval = d }
}

// WithPollMultiplier sets the backoff growth factor.
func WithPollMultiplier(m float64) WaiterOption {
	return func(w *Waiter) { w.multiplier = m }
}

// NewWaiter returns a Waiter with a 2s initial interval, 15s cap, and 1.5x
// backoff unless overridden.
func NewWaiter(provider Provider, observer Observer, opts ...WaiterOption) *Waiter {
	if observer == nil {
		observer = NewConsoleObserver()
	}
	w := &Waiter{
		provider:    provider,
		observer:    observer,
		interval:    2 * time.Second,
		maxInterval: 15 * time.Second,
		multiplier:  1.5,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// AwaitReady blocks until handle reaches ready or fails, for at most
// timeout. The caller's context cancels the wait through the same path as
// the deadline. The handle is returned with its status updated; on timeout
// or cancellation the error is a TimeoutError, on a terminal provider
// failure a ProvisioningError.
func (w *Waiter) AwaitReady(ctx context.Context, handle *Handle, timeout time.Duration) (*Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := w.interval
	for {
		status, err := w.provider.Status(ctx, handle)
		if err != nil {
			// The deadline usually fires mid-call, not between polls: the
			// provider respects ctx and surfaces its error. That is a
			// timeout, not a provider failure.
			if ctx.Err() != nil {
				return handle, &TimeoutError{Key: handle.Spec.Key, Timeout: timeout, Err: ctx.Err()}
			}
			handle.Status = StatusFailed
			return handle, &ProvisioningError{Key: handle.Spec.Key, Err: err}
		}

		switch status {
		case StatusReady:
			handle.Status = StatusReady
			LogResourceReady(w.observer, handle.Spec, handle.ID)
			return handle, nil
		case StatusFailed:
			handle.Status = StatusFailed
			return handle, &ProvisioningError{Key: handle.Spec.Key}
		case StatusDeleted:
			// Deleted out from under us counts as a terminal failure.
			handle.Status = StatusFailed
			return handle, &ProvisioningError{Key: handle.Spec.Key}
		case StatusPending:
			handle.Status = StatusPending
		}

		select {
		case <-ctx.Done():
			return handle, &TimeoutError{Key: handle.Spec.Key, Timeout: timeout, Err: ctx.Err()}
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * w.multiplier)
			if delay > w.maxInterval {
				delay = w.maxInterval
			}
		}
	}
}
