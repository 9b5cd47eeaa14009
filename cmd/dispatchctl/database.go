package main

import (
	"fmt"
	"time"
	"waste-dispatch-service/internal/adapters/fixtures"
	"waste-dispatch-service/internal/adapters/repositories"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the dispatch schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			conn, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := repositories.InitSchema(cmd.Context(), conn); err != nil {
				return err
			}
			logger.Info("schema ready")
			return nil
		},
	}
}

func newSeedCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, collection points and orders from a JSON fixture file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.Database.SeedPath
			}

			f, err := fixtures.Load(path)
			if err != nil {
				return err
			}

			conn, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := repositories.InitSchema(cmd.Context(), conn); err != nil {
				return err
			}
			if err := repositories.Seed(cmd.Context(), conn, f, time.Now()); err != nil {
				return fmt.Errorf("seed %s: %w", path, err)
			}

			logger.Info("seed complete", "path", path,
				"users", len(f.Users), "points", len(f.Points), "orders", len(f.Orders))
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "Fixture file (defaults to SEED_PATH)")
	return cmd
}
