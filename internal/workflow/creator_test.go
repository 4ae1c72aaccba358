package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatorEnsure_CreatesWhenAbsent(t *testing.T) {
	t.Parallel()

	provider := &MockProvider{
		LookupFunc: func(_ context.Context, _ Spec) (*Handle, error) {
			return nil, nil
		},
	}
	creator := NewCreator(provider, NopObserver{})

	spec := Spec{Kind: KindNetwork, Key: "vpc-a", Attributes: map[string]string{"cidr": "10.0.0.0/16"}}
	handle, outcome, err := creator.Ensure(context.Background(), spec)

	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Equal(t, StatusPending, handle.Status)
	assert.Equal(t, 1, provider.CreateCalls)
}

func TestCreatorEnsure_ReusesCompatibleMatch(t *testing.T) {
	t.Parallel()

	spec := Spec{Kind: KindNetwork, Key: "vpc-a", Attributes: map[string]string{"cidr": "10.0.0.0/16"}}
	existing := &Handle{ID: "vpc-123", Kind: KindNetwork, Status: StatusReady, Spec: spec}

	provider := &MockProvider{
		LookupFunc: func(_ context.Context, _ Spec) (*Handle, error) {
			return existing, nil
		},
	}
	creator := NewCreator(provider, NopObserver{})

	handle, outcome, err := creator.Ensure(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReused, outcome)
	assert.Equal(t, "vpc-123", handle.ID)
	assert.Zero(t, provider.CreateCalls, "reuse must issue zero creation calls")
}

func TestCreatorEnsure_SecondEnsureReuses(t *testing.T) {
	t.Parallel()

	// In-memory lookup that starts empty and remembers what was created.
	var stored *Handle
	provider := &MockProvider{}
	provider.LookupFunc = func(_ context.Context, _ Spec) (*Handle, error) {
		return stored, nil
	}
	provider.CreateFunc = func(_ context.Context, spec Spec) (*Handle, error) {
		stored = &Handle{ID: "vpc-1", Kind: spec.Kind, Status: StatusPending, Spec: spec}
		return stored, nil
	}
	creator := NewCreator(provider, NopObserver{})

	spec := Spec{Kind: KindNetwork, Key: "vpc-a"}

	_, outcome, err := creator.Ensure(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	_, outcome, err = creator.Ensure(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReused, outcome)
	assert.Equal(t, 1, provider.CreateCalls)
}

func TestCreatorEnsure_ConflictSurfaces(t *testing.T) {
	t.Parallel()

	provider := &MockProvider{
		LookupFunc: func(_ context.Context, spec Spec) (*Handle, error) {
			return nil, &ConflictError{Key: spec.Key, Reason: "CIDR 10.1.0.0/16 does not match requested 10.0.0.0/16"}
		},
	}
	creator := NewCreator(provider, NopObserver{})

	spec := Spec{Kind: KindNetwork, Key: "vpc-a", Attributes: map[string]string{"cidr": "10.0.0.0/16"}}
	_, outcome, err := creator.Ensure(context.Background(), spec)

	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Zero(t, provider.CreateCalls, "conflict must issue zero calls beyond the lookup")
	assert.Zero(t, provider.DeleteCalls)
}

func TestCreatorEnsure_CreateErrorWrapped(t *testing.T) {
	t.Parallel()

	boom := errors.New("limit exceeded")
	provider := &MockProvider{
		CreateFunc: func(_ context.Context, _ Spec) (*Handle, error) {
			return nil, boom
		},
	}
	creator := NewCreator(provider, NopObserver{})

	_, outcome, err := creator.Ensure(context.Background(), Spec{Kind: KindStorage, Key: "bucket-a"})
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.ErrorIs(t, err, boom)
}
