package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/schemarag/internal/app"
	"github.com/custodia-labs/schemarag/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Ensure the vector index and start the HTTP server",
	Long: `Loads or builds the vector index, then serves the API until interrupted.
Startup failures are logged and the server keeps running unready: /health
reports the state and protected endpoints answer 503.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a, logger)

	return a.Run(ctx)
}

// bootstrap loads configuration, installs the process logger and composes the app.
func bootstrap(ctx context.Context) (*app.App, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)
	logger.Info("schemarag starting", "version", version, "addr", cfg.Addr(), "index_backend", cfg.Index.Backend)

	a, err := app.Bootstrap(ctx, app.Options{
		Config:  cfg,
		Version: version,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}
	return a, logger, nil
}

func closeApp(a *app.App, logger *slog.Logger) {
	if err := a.Close(); err != nil {
		logger.Warn("error during shutdown", "error", err)
	}
}
