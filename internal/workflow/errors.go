package workflow

import (
	"errors"
	"fmt"
	"time"
)

// ConflictError is returned when a resource matching a spec's natural key
// already exists but its configuration is incompatible with the spec.
// The ambiguity is surfaced instead of overwriting the existing resource.
type ConflictError struct {
	Key    string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource %q exists with conflicting configuration: %s", e.Key, e.Reason)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// TimeoutError is returned when a resource does not reach ready within the
// waiter's deadline, or when the caller's context is cancelled mid-poll.
type TimeoutError struct {
	Key     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("resource %q not ready after %v", e.Key, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// ProvisioningError is returned when the provider reports that a resource
// transitioned to a terminal failed state.
type ProvisioningError struct {
	Key string
	Err error
}

func (e *ProvisioningError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provisioning of %q failed", e.Key)
	}
	return fmt.Sprintf("provisioning of %q failed: %v", e.Key, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// IsProvisioningFailed reports whether err is (or wraps) a ProvisioningError.
func IsProvisioningFailed(err error) bool {
	var pe *ProvisioningError
	return errors.As(err, &pe)
}

// CleanupError accumulates errors from teardown actions. Cleanup is
// best-effort: a failing action is recorded here and does not stop the
// remaining actions from running.
type CleanupError struct {
	Errors []error
}

func (e *CleanupError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("cleanup encountered %d errors: %v", len(e.Errors), e.Errors)
}

func (e *CleanupError) Unwrap() error {
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return errors.Join(e.Errors...)
}

// Add records a non-nil error.
func (e *CleanupError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors reports whether any error was recorded.
func (e *CleanupError) HasErrors() bool {
	return len(e.Errors) > 0
}
