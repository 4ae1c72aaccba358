// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the cloudlab CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cloudlab",
		Short: "Provision AWS lab environments from a YAML definition",
	}

	cmd.AddCommand(Apply())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Status())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
