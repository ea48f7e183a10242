package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/notebook/internal/notebook/app"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all up migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig()
			logger := app.NewLogger(cfg)

			db, err := app.OpenStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := db.ApplyMigrations(); err != nil {
				return fmt.Errorf("migrate up failed: %w", err)
			}
			logger.Info("database migrations applied successfully", "driver", cfg.DBDriver)
			return nil
		},
	})

	return cmd
}
