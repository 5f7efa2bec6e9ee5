package main

// @title           Schema Therapy RAG API
// @version         1.0.0
// @description     Grounded Schema Therapy reports and follow-up answers built from a curated document corpus.

// @contact.name   Custodia Labs
// @contact.url    https://github.com/custodia-labs/schemarag/issues

// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Shared API secret configured through MY_APP_SECRET_KEY.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/custodia-labs/schemarag/docs"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "schemarag",
	Short: "Schema Therapy retrieval-augmented generation service",
	Long: `schemarag indexes a folder of Schema Therapy documents into a local vector
index and serves grounded schema reports and follow-up answers over HTTP.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML or YAML config file (default $SCHEMARAG_CONFIG)")
	rootCmd.AddCommand(serveCmd, indexCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
