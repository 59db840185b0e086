package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/idside"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of idside",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("idside version %s\n", strings.TrimSpace(idside.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
