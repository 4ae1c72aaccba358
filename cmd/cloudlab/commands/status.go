package commands

import (
	"github.com/spf13/cobra"

	"github.com/avelis/cloudlab/cmd/cloudlab/handlers"
)

// Status returns the status command.
func Status() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current state of the lab resources",
		Long: `Status looks up every resource in the lab definition and reports its
current state: ready, pending, failed, or absent.

Example:
  cloudlab status -c lab.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to lab definition file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
