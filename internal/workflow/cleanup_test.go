package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryWith(handles ...*Handle) *Registry {
	r := NewRegistry(NopObserver{})
	for _, h := range handles {
		r.Register(h)
	}
	return r
}

func TestRunAll_ReverseOrder(t *testing.T) {
	t.Parallel()

	vpc := &Handle{ID: "vpc-1", Kind: KindNetwork, Status: StatusReady, Spec: Spec{Kind: KindNetwork, Key: "vpc-a"}}
	bucket := &Handle{ID: "bucket-a", Kind: KindStorage, Status: StatusReady, Spec: Spec{Kind: KindStorage, Key: "bucket-a"}}
	instance := &Handle{ID: "i-1", Kind: KindCompute, Status: StatusReady, Spec: Spec{Kind: KindCompute, Key: "web-1"}}

	var deleted []string
	provider := &MockProvider{
		DeleteFunc: func(_ context.Context, h *Handle) error {
			deleted = append(deleted, h.ID)
			return nil
		},
	}

	results, err := registryWith(vpc, bucket, instance).RunAll(context.Background(), provider)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"i-1", "bucket-a", "vpc-1"}, deleted, "last created, first destroyed")
	assert.Equal(t, StatusDeleted, vpc.Status)
	assert.Equal(t, StatusDeleted, instance.Status)
}

func TestRunAll_BestEffortContinuesPastFailure(t *testing.T) {
	t.Parallel()

	vpc := &Handle{ID: "vpc-1", Kind: KindNetwork, Status: StatusReady, Spec: Spec{Kind: KindNetwork, Key: "vpc-a"}}
	stuck := &Handle{ID: "i-1", Kind: KindCompute, Status: StatusReady, Spec: Spec{Kind: KindCompute, Key: "web-1"}}

	provider := &MockProvider{
		DeleteFunc: func(_ context.Context, h *Handle) error {
			if h.ID == "i-1" {
				return errors.New("dependency violation")
			}
			return nil
		},
	}

	results, err := registryWith(vpc, stuck).RunAll(context.Background(), provider)

	require.Error(t, err)
	var ce *CleanupError
	require.ErrorAs(t, err, &ce)
	assert.Len(t, ce.Errors, 1)

	// Both actions ran despite the first (reverse-order) one failing.
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, StatusDeleted, vpc.Status)
	assert.Equal(t, StatusReady, stuck.Status, "failed delete leaves status untouched")
}

func TestRunAll_IdempotentSecondRun(t *testing.T) {
	t.Parallel()

	vpc := &Handle{ID: "vpc-1", Kind: KindNetwork, Status: StatusReady, Spec: Spec{Kind: KindNetwork, Key: "vpc-a"}}
	provider := &MockProvider{}
	registry := registryWith(vpc)

	_, err := registry.RunAll(context.Background(), provider)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.DeleteCalls)

	results, err := registry.RunAll(context.Background(), provider)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.DeleteCalls, "no duplicate delete calls for deleted handles")
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
}

func TestRegister_AppendsInOrder(t *testing.T) {
	t.Parallel()

	a := &Handle{ID: "a", Spec: Spec{Key: "a"}}
	b := &Handle{ID: "b", Spec: Spec{Key: "b"}}

	registry := registryWith(a, b)
	actions := registry.Actions()

	require.Len(t, actions, 2)
	assert.Equal(t, 0, actions[0].Index)
	assert.Equal(t, "a", actions[0].Handle.ID)
	assert.Equal(t, 1, actions[1].Index)
	assert.Equal(t, "delete", actions[1].Op)
}
