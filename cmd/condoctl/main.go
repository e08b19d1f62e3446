package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dan9191/condo-service/internal/app"
	"github.com/Dan9191/condo-service/internal/config"
	"github.com/Dan9191/condo-service/internal/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "condoctl",
	Short: "Administration commands for the condominium service",
	Long: `condoctl runs maintenance tasks against the configured storage backend:
schema migrations, seeding, monthly fee generation, invoice housekeeping and
reports. It reads the same environment variables (and .env file) as the API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// open loads the configuration and connects to storage
func open(ctx context.Context, migrate bool) (*app.App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.LogLevel, "text")
	log.SetOutput(os.Stderr)
	return app.New(ctx, cfg, log, migrate)
}

// condoIDs returns the --condo flag, or every condominium when it is empty
func condoIDs(ctx context.Context, cmd *cobra.Command, a *app.App) ([]string, error) {
	id, _ := cmd.Flags().GetString("condo")
	if id != "" {
		if _, err := a.Service.GetCondominium(ctx, id); err != nil {
			return nil, fmt.Errorf("condominium %s: %w", id, err)
		}
		return []string{id}, nil
	}
	return a.Service.CondominiumIDs(ctx)
}
