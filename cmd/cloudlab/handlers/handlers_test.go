package handlers

import (
	"context"
	"time"

	"github.com/avelis/cloudlab/internal/config"
	"github.com/avelis/cloudlab/internal/workflow"
)

func testLabConfig() *config.Config {
	return &config.Config{
		Name:   "test-lab",
		Region: "us-east-1",
		Networks: []config.NetworkConfig{
			{Name: "test-net", CIDR: "10.0.0.0/16"},
		},
		Buckets: []config.BucketConfig{
			{Name: "test-data"},
		},
	}
}

func fastTestTimeouts() *config.Timeouts {
	return &config.Timeouts{
		Create:            time.Second,
		Ready:             time.Second,
		Delete:            time.Second,
		PollInterval:      time.Millisecond,
		RetryMaxAttempts:  1,
		RetryInitialDelay: time.Millisecond,
	}
}

// withFactories swaps the handler factory variables for the duration of a
// test and returns a restore func for defer.
func withFactories(cfg *config.Config, provider workflow.Provider) func() {
	origLoad := loadLabConfig
	origTimeouts := loadTimeouts
	origProvider := newProvider

	loadLabConfig = func(string) (*config.Config, error) { return cfg, nil }
	loadTimeouts = fastTestTimeouts
	newProvider = func(context.Context, string, *config.Timeouts) (workflow.Provider, error) {
		return provider, nil
	}

	return func() {
		loadLabConfig = origLoad
		loadTimeouts = origTimeouts
		newProvider = origProvider
	}
}
