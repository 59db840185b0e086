package main

import (
	"fmt"
	"os"

	"github.com/aretw0/idside/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "idside",
	Short: "idside runs declarative decision models",
	Long: `idside executes decision models written as YAML documents: ordered prompt,
tool and decision steps chained by "next", with provider calls served live,
faked, or refused depending on configuration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
