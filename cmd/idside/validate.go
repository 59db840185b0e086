package main

import (
	"os"

	"github.com/aretw0/idside/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <spec.yaml>",
	Short: "Check a spec for consistency",
	Long:  `Parses the spec and reports dangling next references, cycles, unreachable steps and decisions without a key.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(args[0], os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
