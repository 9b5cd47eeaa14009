package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"waste-dispatch-service/internal/config"
	"waste-dispatch-service/internal/platform/db"
	"waste-dispatch-service/internal/platform/obs"

	"github.com/spf13/cobra"
)

var verbose bool

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dispatchctl",
		Short: "Operate the waste dispatch database",
		Long: `dispatchctl manages the PostgreSQL store behind the dispatch service
and exposes route generation to external schedulers.

Examples:
  dispatchctl migrate
  dispatchctl seed --file data/seeds/dispatch.json
  dispatchctl generate --date 2026-03-02
  dispatchctl token --login ivanov --role driver`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newSeedCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newTokenCommand())

	return rootCmd
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger := obs.NewLogger(os.Stderr, level, "text")
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.Database.Store != "postgres" || cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is required and STORE must be postgres")
	}
	return db.Open(ctx, cfg.Database.URL, db.Pool{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnLifetime: cfg.Database.ConnLifetime,
	})
}
