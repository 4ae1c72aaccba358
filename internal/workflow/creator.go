package workflow

import (
	"context"
	"fmt"
)

// Outcome describes how a workflow step concluded for its spec.
type Outcome string

const (
	// OutcomeCreated means a new resource was created for the spec.
	OutcomeCreated Outcome = "created"
	// OutcomeReused means a compatible resource already existed; no
	// mutation was issued.
	OutcomeReused Outcome = "reused"
	// OutcomeFailed means the step ended in an error.
	OutcomeFailed Outcome = "failed"
)

// Creator implements the idempotent ensure step: return an existing
// compatible resource, or create a new one.
type Creator struct {
	provider Provider
	observer Observer
}

// NewCreator returns a Creator backed by the given provider.
func NewCreator(provider Provider, observer Observer) *Creator {
	if observer == nil {
		observer = NewConsoleObserver()
	}
	return &Creator{provider: provider, observer: observer}
}

// Ensure resolves spec to a handle. It looks up the resource by its natural
// key first; a compatible match is returned as-is with OutcomeReused and
// zero mutation calls. An incompatible match surfaces as a ConflictError.
// Otherwise exactly one creation call is issued and the returned handle
// starts out pending.
func (c *Creator) Ensure(ctx context.Context, spec Spec) (*Handle, Outcome, error) {
	existing, err := c.provider.Lookup(ctx, spec)
	if err != nil {
		LogResourceFailed(c.observer, spec, err)
		return nil, OutcomeFailed, fmt.Errorf("lookup of %s %q: %w", spec.Kind, spec.Key, err)
	}

	if existing != nil {
		LogResourceExists(c.observer, spec, existing.ID)
		return existing, OutcomeReused, nil
	}

	LogResourceCreating(c.observer, spec)
	handle, err := c.provider.Create(ctx, spec)
	if err != nil {
		LogResourceFailed(c.observer, spec, err)
		return nil, OutcomeFailed, fmt.Errorf("create of %s %q: %w", spec.Kind, spec.Key, err)
	}
	if handle.Status == "" {
		handle.Status = StatusPending
	}

	LogResourceCreated(c.observer, spec, handle.ID)
	return handle, OutcomeCreated, nil
}
