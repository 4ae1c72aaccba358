package handlers

import (
	"context"
	"fmt"

	"github.com/avelis/cloudlab/internal/config"
	"github.com/avelis/cloudlab/internal/workflow"
)

// resourceStatus is one row of the status report.
type resourceStatus struct {
	Kind   workflow.Kind
	Key    string
	ID     string
	Status string
}

const statusAbsent = "absent"

// Status handles the status command.
//
// It looks up every resource in the lab definition and prints its
// current state without changing anything.
func Status(ctx context.Context, configPath string) error {
	cfg, err := loadLabConfig(configPath)
	if err != nil {
		return err
	}

	timeouts := loadTimeouts()
	provider, err := newProvider(ctx, cfg.Region, timeouts)
	if err != nil {
		return fmt.Errorf("failed to initialize provider: %w", err)
	}

	rows, err := collectStatus(ctx, provider, cfg)
	if err != nil {
		return err
	}

	fmt.Print(renderStatus(cfg.Name, cfg.Region, rows))
	return nil
}

func collectStatus(ctx context.Context, provider workflow.Provider, cfg *config.Config) ([]resourceStatus, error) {
	specs := cfg.Specs()
	rows := make([]resourceStatus, 0, len(specs))

	for _, spec := range specs {
		row := resourceStatus{Kind: spec.Kind, Key: spec.Key}

		handle, err := provider.Lookup(ctx, spec)
		switch {
		case workflow.IsConflict(err):
			row.Status = "conflict"
		case err != nil:
			return nil, fmt.Errorf("failed to look up %s %s: %w", spec.Kind, spec.Key, err)
		case handle == nil:
			row.Status = statusAbsent
		default:
			row.ID = handle.ID
			status, err := provider.Status(ctx, handle)
			if err != nil {
				return nil, fmt.Errorf("failed to get status of %s %s: %w", spec.Kind, spec.Key, err)
			}
			row.Status = string(status)
		}

		rows = append(rows, row)
	}
	return rows, nil
}
