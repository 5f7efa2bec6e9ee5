package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/services"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load or build the vector index, then exit",
	Long: `Runs the same startup as serve without listening. Exits non-zero if the
index could not be made ready, so images and CI jobs can pre-build it.
Missing API secrets are reported but do not fail the command.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	if !a.Runtime.IndexReady() {
		err := a.InitError()
		if services.IsIndexFailure(err) {
			return fmt.Errorf("index build failed: %w", err)
		}
		return fmt.Errorf("index not ready: %w", err)
	}
	if err := a.InitError(); err != nil {
		logger.Warn("index ready but the API cannot serve yet", "error", err)
	}

	status := a.Index.Status(ctx)
	logger.Info("index ready", "location", status.Location, "records", recordCount(status.Manifest))
	return nil
}

func recordCount(m *domain.IndexManifest) int {
	if m == nil {
		return 0
	}
	return m.RecordCount
}
