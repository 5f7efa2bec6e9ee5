package main

import (
	"fmt"

	"github.com/spf13/cobra"

	httpserver "github.com/custodia-labs/schemarag/internal/adapters/driving/http"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "schemarag %s (API %s)\n", version, httpserver.APIVersion)
	},
}
