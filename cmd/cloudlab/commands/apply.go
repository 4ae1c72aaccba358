package commands

import (
	"github.com/spf13/cobra"

	"github.com/avelis/cloudlab/cmd/cloudlab/handlers"
)

// Apply returns the apply command.
//
// Apply provisions every resource in the lab definition, in order:
// networks, then buckets, then instances. Each resource is looked up by
// name first; a compatible existing resource is reused, so re-running
// apply on an already-provisioned lab is a no-op.
func Apply() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Provision the lab resources described in the definition file",
		Long: `Apply provisions the lab environment described in the definition file.

Resources are created in dependency order: networks first, then buckets,
then instances. Creation is idempotent; resources that already exist with
compatible attributes are reused. An existing resource with incompatible
attributes (a VPC with a different CIDR, a bucket in another region) stops
the run with a conflict error.

If any step fails, everything created during this run is deleted again in
reverse order before apply returns.

Example:
  cloudlab apply -c lab.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to lab definition file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
