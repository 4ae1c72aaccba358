package workflow

import (
	"context"
	"time"
)

// Step is one (spec, outcome) entry of a workflow result.
type Step struct {
	Spec    Spec
	Outcome Outcome
	Handle  *Handle
	Err     error
}

// Result is the aggregate outcome of a workflow run: the ordered step
// outcomes plus the cleanup results when a failure triggered teardown.
type Result struct {
	Steps   []Step
	Cleanup []ActionResult
}

// Err returns the error of the failed step, or nil when all steps succeeded.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// Failed reports whether any step failed.
func (r *Result) Failed() bool { return r.Err() != nil }

// Runner orchestrates ensure, cleanup registration, and readiness waiting
// for an ordered sequence of specs.
type Runner struct {
	provider     Provider
	observer     Observer
	creator      *Creator
	waiter       *Waiter
	registry     *Registry
	readyTimeout time.Duration
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithObserver sets the observer used by the runner and its components.
func WithObserver(observer Observer) RunnerOption {
	return func(r *Runner) { r.observer = observer }
}

// WithReadyTimeout bounds how long each resource may take to become ready.
func WithReadyTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.readyTimeout = d }
}

// WithWaiterOptions forwards options to the runner's readiness waiter.
func WithWaiterOptions(opts ...WaiterOption) RunnerOption {
	return func(r *Runner) { r.waiter = NewWaiter(r.provider, r.observer, opts...) }
}

// NewRunner returns a Runner with a 10 minute per-resource ready timeout
// unless overridden.
func NewRunner(provider Provider, opts ...RunnerOption) *Runner {
	r := &Runner{
		provider:     provider,
		observer:     NewConsoleObserver(),
		readyTimeout: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.creator == nil {
		r.creator = NewCreator(r.provider, r.observer)
	}
	if r.waiter == nil {
		r.waiter = NewWaiter(r.provider, r.observer)
	}
	if r.registry == nil {
		r.registry = NewRegistry(r.observer)
	}
	return r
}

// Registry exposes the runner's cleanup registry for inspection.
func (r *Runner) Registry() *Registry { return r.registry }

// Run processes specs strictly in order: ensure, register cleanup, then
// wait for readiness. The cleanup action is registered before waiting, so
// nothing exists externally without its undo queued. On the first failure
// the runner stops, executes the registry in reverse, and returns a result
// reflecting the partial progress. On full success no cleanup runs;
// teardown stays an explicit Teardown call.
func (r *Runner) Run(ctx context.Context, specs []Spec) *Result {
	result := &Result{}

	for i, spec := range specs {
		LogStepStarted(r.observer, spec, i+1, len(specs))
		start := time.Now()

		handle, outcome, err := r.creator.Ensure(ctx, spec)
		if err != nil {
			result.Steps = append(result.Steps, Step{Spec: spec, Outcome: OutcomeFailed, Err: err})
			recordStep(spec.Kind, OutcomeFailed)
			LogStepFailed(r.observer, spec, err)
			result.Cleanup, _ = r.registry.RunAll(ctx, r.provider)
			return result
		}

		r.registry.Register(handle)

		handle, err = r.waiter.AwaitReady(ctx, handle, r.readyTimeout)
		if err != nil {
			result.Steps = append(result.Steps, Step{Spec: spec, Outcome: OutcomeFailed, Handle: handle, Err: err})
			recordStep(spec.Kind, OutcomeFailed)
			LogStepFailed(r.observer, spec, err)
			result.Cleanup, _ = r.registry.RunAll(ctx, r.provider)
			return result
		}

		result.Steps = append(result.Steps, Step{Spec: spec, Outcome: outcome, Handle: handle})
		recordStep(spec.Kind, outcome)
		LogStepCompleted(r.observer, spec, outcome, time.Since(start))
	}

	return result
}

// Teardown executes all registered cleanup actions in reverse order. It is
// the explicit counterpart to the automatic cleanup on failure.
func (r *Runner) Teardown(ctx context.Context) ([]ActionResult, error) {
	return r.registry.RunAll(ctx, r.provider)
}
