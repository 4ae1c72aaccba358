package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	labconfig "github.com/avelis/cloudlab/internal/config"
	"github.com/avelis/cloudlab/internal/workflow"
)

func TestApply(t *testing.T) {
	provider := &workflow.MockProvider{}
	restore := withFactories(testLabConfig(), provider)
	defer restore()

	err := Apply(context.Background(), "lab.yaml")
	require.NoError(t, err)

	assert.Equal(t, 2, provider.CreateCalls, "network and bucket are created")
	assert.Zero(t, provider.DeleteCalls, "success never triggers cleanup")
}

func TestApplyReusesExistingResources(t *testing.T) {
	provider := &workflow.MockProvider{
		LookupFunc: func(_ context.Context, spec workflow.Spec) (*workflow.Handle, error) {
			return &workflow.Handle{ID: "existing-" + spec.Key, Kind: spec.Kind, Status: workflow.StatusReady, Spec: spec}, nil
		},
	}
	restore := withFactories(testLabConfig(), provider)
	defer restore()

	err := Apply(context.Background(), "lab.yaml")
	require.NoError(t, err)
	assert.Zero(t, provider.CreateCalls)
}

func TestApplyFailureRollsBack(t *testing.T) {
	provider := &workflow.MockProvider{
		CreateFunc: func(_ context.Context, spec workflow.Spec) (*workflow.Handle, error) {
			if spec.Kind == workflow.KindStorage {
				return nil, errors.New("AccessDenied")
			}
			return &workflow.Handle{ID: "id-" + spec.Key, Kind: spec.Kind, Status: workflow.StatusPending, Spec: spec}, nil
		},
	}
	restore := withFactories(testLabConfig(), provider)
	defer restore()

	// A handled step failure with completed rollback is still a zero exit.
	err := Apply(context.Background(), "lab.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.DeleteCalls, "the created network is rolled back")
}

func TestApplyLoadError(t *testing.T) {
	origLoad := loadLabConfig
	defer func() { loadLabConfig = origLoad }()

	loadLabConfig = func(string) (*labconfig.Config, error) { return nil, errors.New("no such file") }

	err := Apply(context.Background(), "missing.yaml")
	assert.ErrorContains(t, err, "no such file")
}
