// Package main is the entry point for the cloudlab CLI.
//
// cloudlab provisions small AWS lab environments (VPC networks, S3
// buckets, EC2 instances) from a declarative YAML definition. Creation
// is idempotent: an apply re-run reuses compatible resources instead of
// duplicating them, and any mid-run failure tears down what the run
// created, in reverse order.
//
// Commands: apply, destroy, status, version, completion.
//
// For detailed usage information, run:
//
//	cloudlab --help
package main

import (
	"fmt"
	"os"

	"github.com/avelis/cloudlab/cmd/cloudlab/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
