package main

import (
	"os"

	"github.com/aretw0/idside/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <spec.yaml>",
	Short: "Run a decision model",
	Long: `Parses the spec, runs it from its first step and prints the trace.

Inputs are given as --input key=value (values are read as YAML scalars)
or as a JSON object with --inputs-json (use "-" for stdin).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, _ := cmd.Flags().GetStringArray("input")
		inputsJSON, _ := cmd.Flags().GetString("inputs-json")
		jsonMode, _ := cmd.Flags().GetBool("json")
		metrics, _ := cmd.Flags().GetBool("metrics")
		debug, _ := cmd.Flags().GetBool("debug")

		ctx, cancel := cli.NewSignalContext(cmd.Context())
		defer cancel()

		return cli.Run(ctx, cli.RunOptions{
			SpecPath:   args[0],
			Inputs:     inputs,
			InputsJSON: inputsJSON,
			JSON:       jsonMode,
			Metrics:    metrics,
			Debug:      debug,
		}, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayP("input", "i", nil, "Input as key=value (repeatable)")
	runCmd.Flags().String("inputs-json", "", "Path to a JSON object with inputs, - for stdin")
	runCmd.Flags().Bool("json", false, "Print the run result as JSON")
	runCmd.Flags().Bool("metrics", false, "Print Prometheus metrics for the run's telemetry")
	runCmd.Flags().Bool("debug", false, "Log each step to stderr")
}
