package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRunner(provider Provider) *Runner {
	return NewRunner(provider,
		WithObserver(NopObserver{}),
		WithReadyTimeout(50*time.Millisecond),
		WithWaiterOptions(WithPollInterval(time.Millisecond), WithMaxPollInterval(2*time.Millisecond)),
	)
}

func labSpecs() []Spec {
	return []Spec{
		{Kind: KindNetwork, Key: "vpc-a", Attributes: map[string]string{"cidr": "10.0.0.0/16"}},
		{Kind: KindStorage, Key: "bucket-a"},
	}
}

func TestRun_AllCreated_NoAutomaticCleanup(t *testing.T) {
	t.Parallel()

	provider := &MockProvider{}
	runner := fastRunner(provider)

	result := runner.Run(context.Background(), labSpecs())

	require.False(t, result.Failed())
	require.Len(t, result.Steps, 2)
	assert.Equal(t, OutcomeCreated, result.Steps[0].Outcome)
	assert.Equal(t, OutcomeCreated, result.Steps[1].Outcome)
	assert.Empty(t, result.Cleanup, "success must not trigger cleanup")
	assert.Zero(t, provider.DeleteCalls)
	assert.Equal(t, 2, runner.Registry().Len(), "every live handle has its undo queued")
}

func TestRun_SecondStepFails_CleansUpInReverse(t *testing.T) {
	t.Parallel()

	var deleted []string
	provider := &MockProvider{
		CreateFunc: func(_ context.Context, spec Spec) (*Handle, error) {
			return &Handle{ID: "id-" + spec.Key, Kind: spec.Kind, Status: StatusPending, Spec: spec}, nil
		},
		StatusFunc: func(_ context.Context, h *Handle) (Status, error) {
			if h.Kind == KindStorage {
				return StatusFailed, nil
			}
			return StatusReady, nil
		},
		DeleteFunc: func(_ context.Context, h *Handle) error {
			deleted = append(deleted, h.ID)
			return nil
		},
	}

	result := fastRunner(provider).Run(context.Background(), labSpecs())

	require.True(t, result.Failed())
	require.Len(t, result.Steps, 2, "outcome count equals the failing step index")
	assert.Equal(t, OutcomeCreated, result.Steps[0].Outcome)
	assert.Equal(t, OutcomeFailed, result.Steps[1].Outcome)
	assert.True(t, IsProvisioningFailed(result.Steps[1].Err))

	// The failed bucket was registered before waiting, so it is released
	// too, then the vpc — strict reverse order.
	assert.Equal(t, []string{"id-bucket-a", "id-vpc-a"}, deleted)
}

func TestRun_EnsureConflict_StopsAndCleansPriorSteps(t *testing.T) {
	t.Parallel()

	var deleted []string
	provider := &MockProvider{
		LookupFunc: func(_ context.Context, spec Spec) (*Handle, error) {
			if spec.Kind == KindStorage {
				return nil, &ConflictError{Key: spec.Key, Reason: "region mismatch"}
			}
			return nil, nil
		},
		DeleteFunc: func(_ context.Context, h *Handle) error {
			deleted = append(deleted, h.ID)
			return nil
		},
	}

	result := fastRunner(provider).Run(context.Background(), labSpecs())

	require.True(t, result.Failed())
	assert.True(t, IsConflict(result.Err()))
	require.Len(t, result.Steps, 2)
	assert.Equal(t, []string{"mock-vpc-a"}, deleted, "only the prior step is torn down")
	require.Len(t, result.Cleanup, 1)
}

func TestRun_ThirdSpecNeverProcessedAfterFailure(t *testing.T) {
	t.Parallel()

	specs := append(labSpecs(), Spec{Kind: KindCompute, Key: "web-1"})
	provider := &MockProvider{
		CreateFunc: func(_ context.Context, spec Spec) (*Handle, error) {
			if spec.Kind == KindStorage {
				return nil, assert.AnError
			}
			return &Handle{ID: "id-" + spec.Key, Kind: spec.Kind, Status: StatusPending, Spec: spec}, nil
		},
	}

	result := fastRunner(provider).Run(context.Background(), specs)

	require.True(t, result.Failed())
	assert.Len(t, result.Steps, 2)
	assert.Equal(t, 2, provider.CreateCalls, "no spec processed past the failure")
}

func TestTeardown_ExplicitAfterSuccess(t *testing.T) {
	t.Parallel()

	provider := &MockProvider{}
	runner := fastRunner(provider)

	result := runner.Run(context.Background(), labSpecs())
	require.False(t, result.Failed())

	results, err := runner.Teardown(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, provider.DeleteCalls)

	// A second teardown is a no-op.
	results, err = runner.Teardown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, provider.DeleteCalls)
	for _, res := range results {
		assert.True(t, res.Skipped)
	}
}

func TestRun_ReadinessTimeoutTriggersCleanup(t *testing.T) {
	t.Parallel()

	provider := &MockProvider{
		StatusFunc: func(_ context.Context, _ *Handle) (Status, error) {
			return StatusPending, nil
		},
	}

	result := fastRunner(provider).Run(context.Background(), labSpecs()[:1])

	require.True(t, result.Failed())
	assert.True(t, IsTimeout(result.Err()))
	assert.Equal(t, 1, provider.DeleteCalls, "timed-out resource is still released")
}
