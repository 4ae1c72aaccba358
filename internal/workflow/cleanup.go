package workflow

import (
	"context"
	"fmt"
	"sync"
)

// Action is a deferred teardown operation bound to one handle. Index is the
// position at which the action was registered; RunAll executes actions in
// strictly decreasing Index order.
type Action struct {
	Handle *Handle
	Index  int
	Op     string
}

// ActionResult records the outcome of one executed (or skipped) action.
type ActionResult struct {
	Action  Action
	Err     error
	Skipped bool
}

// Registry is an append-only log of cleanup actions. Registration order is
// creation order, so reverse execution tears dependents down before their
// dependencies (an instance before its network).
type Registry struct {
	mu       sync.Mutex
	actions  []Action
	observer Observer
}

// NewRegistry returns an empty cleanup registry.
func NewRegistry(observer Observer) *Registry {
	if observer == nil {
		observer = NewConsoleObserver()
	}
	return &Registry{observer: observer}
}

// Register appends a delete action for handle. It never reorders.
func (r *Registry) Register(handle *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, Action{
		Handle: handle,
		Index:  len(r.actions),
		Op:     "delete",
	})
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actions)
}

// Actions returns a copy of the registered actions in registration order.
func (r *Registry) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// RunAll executes every action in reverse registration order. Failures are
// recorded and do not halt earlier-registered actions; the aggregate comes
// back as a CleanupError alongside the per-action results. Handles already
// marked deleted are skipped, so running RunAll twice issues no duplicate
// delete calls.
func (r *Registry) RunAll(ctx context.Context, provider Provider) ([]ActionResult, error) {
	actions := r.Actions()

	results := make([]ActionResult, 0, len(actions))
	cleanupErr := &CleanupError{}

	for i := len(actions) - 1; i >= 0; i-- {
		action := actions[i]
		handle := action.Handle

		if handle.Status == StatusDeleted {
			results = append(results, ActionResult{Action: action, Skipped: true})
			recordCleanup("skipped")
			continue
		}

		LogResourceDeleting(r.observer, handle.Spec, handle.ID)
		if err := provider.Delete(ctx, handle); err != nil {
			err = fmt.Errorf("delete of %s %q: %w", handle.Kind, handle.Spec.Key, err)
			r.observer.Printf("cleanup: %v (continuing)", err)
			results = append(results, ActionResult{Action: action, Err: err})
			cleanupErr.Add(err)
			recordCleanup("failed")
			continue
		}

		handle.Status = StatusDeleted
		LogResourceDeleted(r.observer, handle.Spec, handle.ID)
		results = append(results, ActionResult{Action: action})
		recordCleanup("deleted")
	}

	if cleanupErr.HasErrors() {
		return results, cleanupErr
	}
	return results, nil
}
