package commands

import (
	"github.com/spf13/cobra"

	"github.com/avelis/cloudlab/cmd/cloudlab/handlers"
)

// Destroy returns the destroy command.
//
// Destroy removes all lab resources in reverse provisioning order:
// instances, then buckets, then networks (including their subnets,
// gateways and route tables).
func Destroy() *cobra.Command {
	var configPath string
	var yes bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete all lab resources described in the definition file",
		Long: `Destroy removes all resources associated with the lab definition.

Resources are deleted in reverse provisioning order so dependents go
first: instances, then buckets (emptied before deletion), then networks
with their subnets, internet gateways and route tables.

Deletion is best effort: a failure on one resource is reported but does
not stop the remaining deletions. Resources that are already gone are
skipped.

Example:
  cloudlab destroy -c lab.yaml

WARNING: This operation is irreversible. Bucket contents are deleted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to lab definition file (required)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the interactive confirmation prompt")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
