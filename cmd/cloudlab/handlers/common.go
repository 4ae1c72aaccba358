// Package handlers implements the CLI command logic.
//
// Handlers load the lab definition, build the AWS-backed provider, and
// drive the workflow runner. Construction goes through package-level
// factory variables so tests can substitute mocks.
package handlers

import (
	"context"

	"github.com/avelis/cloudlab/internal/config"
	"github.com/avelis/cloudlab/internal/platform/aws"
	"github.com/avelis/cloudlab/internal/workflow"
)

// Factory function variables - can be replaced in tests.
var (
	// loadLabConfig loads and validates the lab definition file.
	loadLabConfig = config.LoadFile

	// loadTimeouts reads timeout configuration from the environment.
	loadTimeouts = config.LoadTimeouts

	// newProvider builds the AWS-backed workflow provider.
	newProvider = func(ctx context.Context, region string, timeouts *config.Timeouts) (workflow.Provider, error) {
		client, err := aws.NewClient(ctx, region, timeouts)
		if err != nil {
			return nil, err
		}
		return aws.NewProvider(client), nil
	}
)
