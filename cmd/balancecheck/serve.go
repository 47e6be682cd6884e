package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/balancecheck"
	"github.com/jpalmerr/balancecheck/config"
	"github.com/jpalmerr/balancecheck/internal/plugin"
	"github.com/jpalmerr/balancecheck/internal/server"
	"github.com/jpalmerr/balancecheck/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd serves the balance command and tool over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve balance reports over HTTP",
	Long: `Serve the balance command and the balance_query tool over HTTP.

The server will:
  - Load settings from the specified YAML file
  - Reload them whenever the file changes
  - Answer POST /api/commands/balance and POST /api/tools/balance_query
  - Publish the latest outcome per service at GET /api/outcomes

The server runs until interrupted (Ctrl+C) or receives SIGTERM. The port is
read once at startup.

Example:
  balancecheck serve -c settings.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to settings file (required)")
	serveCmd.Flags().Bool("watch", true, "reload settings when the file changes")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	configFile, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	logger.Info("settings loaded",
		"mode", settings.Mode(),
		"tool_enabled", settings.EnableLLMTool,
		"timeout", settings.Timeout.Duration().String(),
	)

	outcomes := store.NewMemoryStore()
	p, err := plugin.New(settings, logger, balancecheck.WithOutcomeCallback(outcomes.Observe))
	if err != nil {
		return fmt.Errorf("failed to create plugin: %w", err)
	}
	defer p.Close()

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		watcher, err := plugin.WatchSettings(configFile, p, plugin.DefaultDebounce, logger)
		if err != nil {
			return fmt.Errorf("failed to watch settings: %w", err)
		}
		defer func() { _ = watcher.Close() }()
	}

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(p, outcomes, settings.Port, logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	<-ctx.Done()

	// signal received, wait for graceful shutdown with timeout
	select {
	case <-srv.Done():
		logger.Info("shutdown complete")
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timed out",
			"timeout", shutdownTimeout.String(),
			"action", "forcing exit",
		)
	}
	return nil
}
