package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/avelis/cloudlab/internal/workflow"
)

// Apply handles the apply command.
//
// It loads the lab definition and provisions every resource in order.
// Compatible existing resources are reused. On failure the runner has
// already deleted this run's resources in reverse order; Apply renders
// the full result either way.
func Apply(ctx context.Context, configPath string) error {
	cfg, err := loadLabConfig(configPath)
	if err != nil {
		return err
	}

	specs := cfg.Specs()
	log.Printf("Applying lab %s (%d resources, region %s)", cfg.Name, len(specs), cfg.Region)

	timeouts := loadTimeouts()
	provider, err := newProvider(ctx, cfg.Region, timeouts)
	if err != nil {
		return fmt.Errorf("failed to initialize provider: %w", err)
	}

	runner := workflow.NewRunner(provider,
		workflow.WithReadyTimeout(timeouts.Ready),
		workflow.WithWaiterOptions(workflow.WithPollInterval(timeouts.PollInterval)),
	)

	result := runner.Run(ctx, specs)

	for _, step := range result.Steps {
		if step.Err != nil {
			log.Printf("  %s %s: %v", step.Spec.Kind, step.Spec.Key, step.Err)
			continue
		}
		log.Printf("  %s %s: %s (id %s)", step.Spec.Kind, step.Spec.Key, step.Outcome, step.Handle.ID)
	}

	// A failed step with completed rollback is a handled outcome: the
	// result says exactly what happened and nothing is left orphaned, so
	// the command still exits zero. Only unhandled errors (bad definition,
	// credential failure) surface as non-zero exits.
	if result.Failed() {
		if len(result.Cleanup) > 0 {
			log.Printf("Rolled back %d resources after failure", len(result.Cleanup))
		}
		log.Printf("Apply of lab %s failed: %v", cfg.Name, result.Err())
		return nil
	}

	log.Printf("Lab %s applied successfully", cfg.Name)
	return nil
}
