package main

import (
	"os"

	"github.com/aretw0/idside/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <spec.yaml>",
	Short: "Export the step chain visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the spec's steps and next links. With --trace the spec is run and visited steps are highlighted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trace, _ := cmd.Flags().GetBool("trace")
		inputs, _ := cmd.Flags().GetStringArray("input")
		return cli.Graph(cmd.Context(), args[0], trace, inputs, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().Bool("trace", false, "Run the spec and overlay the visited steps")
	graphCmd.Flags().StringArrayP("input", "i", nil, "Input as key=value for --trace (repeatable)")
}
