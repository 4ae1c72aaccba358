package handlers

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/avelis/cloudlab/internal/workflow"
)

// stdoutIsTerminal reports whether stdout is attached to a terminal.
// Replaced in tests.
var stdoutIsTerminal = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// confirmDestroy asks for interactive confirmation. Replaced in tests.
var confirmDestroy = func(labName string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Destroy lab %q and all its resources?", labName)).
			Description("Instances are terminated, buckets are emptied and deleted, networks are removed.").
			Affirmative("Destroy").
			Negative("Cancel").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Destroy handles the destroy command.
//
// It looks up every resource in the lab definition and deletes what
// exists, in reverse provisioning order: instances first, networks last.
// Deletion is best effort; per-resource failures are collected and
// reported together. Without --yes a terminal prompt must be confirmed.
func Destroy(ctx context.Context, configPath string, yes bool) error {
	cfg, err := loadLabConfig(configPath)
	if err != nil {
		return err
	}

	if !yes {
		if !stdoutIsTerminal() {
			return fmt.Errorf("refusing to destroy without confirmation; re-run with --yes")
		}
		confirmed, err := confirmDestroy(cfg.Name)
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !confirmed {
			log.Println("Destroy cancelled")
			return nil
		}
	}

	log.Printf("Destroying lab %s", cfg.Name)

	timeouts := loadTimeouts()
	provider, err := newProvider(ctx, cfg.Region, timeouts)
	if err != nil {
		return fmt.Errorf("failed to initialize provider: %w", err)
	}

	// Rebuild the cleanup registry from what actually exists. Registration
	// follows provisioning order; the registry reverses it on execution.
	registry := workflow.NewRegistry(workflow.NewConsoleObserver())
	for _, spec := range cfg.Specs() {
		handle, err := provider.Lookup(ctx, spec)
		if err != nil {
			if workflow.IsConflict(err) {
				log.Printf("Skipping %s %s: exists with incompatible attributes, not managed by this lab", spec.Kind, spec.Key)
				continue
			}
			return fmt.Errorf("failed to look up %s %s: %w", spec.Kind, spec.Key, err)
		}
		if handle == nil {
			continue
		}
		registry.Register(handle)
	}

	if registry.Len() == 0 {
		log.Printf("Nothing to destroy for lab %s", cfg.Name)
		return nil
	}

	results, cleanupErr := registry.RunAll(ctx, provider)
	for _, res := range results {
		switch {
		case res.Skipped:
			log.Printf("  %s %s: already deleted", res.Action.Handle.Kind, res.Action.Handle.Spec.Key)
		case res.Err != nil:
			log.Printf("  %s %s: %v", res.Action.Handle.Kind, res.Action.Handle.Spec.Key, res.Err)
		default:
			log.Printf("  %s %s: deleted", res.Action.Handle.Kind, res.Action.Handle.Spec.Key)
		}
	}

	if cleanupErr != nil {
		return fmt.Errorf("destroy finished with errors: %w", cleanupErr)
	}

	log.Printf("Lab %s destroyed successfully", cfg.Name)
	return nil
}
