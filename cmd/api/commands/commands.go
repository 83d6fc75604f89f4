package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tracker/internal/adapters/repository"
	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/infrastructure/idgen"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/infrastructure/server"
)

// Set at build time with -ldflags "-X .../commands.Version=..."
var (
	Version   = "dev"
	GitCommit = "development"
	BuildDate = "unknown"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Task Tracker API server",
		Long:  "Start the API server. Tasks live in memory and are lost when the process exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx)
		},
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Task Tracker version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task Tracker %s\n", Version)
			fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}

// NewConfigCommand prints the effective configuration after defaults,
// .env and environment overrides are applied
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
}

func runServer(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	ids, err := idgen.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize id generator: %w", err)
	}
	taskRepo := repository.NewTaskRepository(ids)

	srv, err := server.New(cfg, taskRepo, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting Task Tracker API server",
		"address", cfg.Server.Address(),
		"environment", cfg.App.Environment,
		"id_generator", cfg.Store.IDGenerator,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Address())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Infow("Server exited gracefully")
	return nil
}
