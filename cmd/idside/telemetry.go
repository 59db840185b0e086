package main

import (
	"os"

	"github.com/aretw0/idside/internal/cli"
	"github.com/spf13/cobra"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Dump the shared telemetry log",
	Long:  `Prints the provider and tool events recorded by every run that shared the Redis log at REDIS_URL.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		return cli.DumpTelemetry(cmd.Context(), jsonMode, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(telemetryCmd)

	telemetryCmd.Flags().Bool("json", false, "Print events as JSON")
}
