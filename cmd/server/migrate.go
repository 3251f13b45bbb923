package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"hangout-backend/internal/config"
	"hangout-backend/internal/database"
	"hangout-backend/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context())
	},
}

func runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection failed: %w", err)
	}
	defer pool.Close()

	applied, err := database.RunMigrations(ctx, pool, migrations.FS)
	if err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Printf("✓ %d migration(s) applied", applied)
	return nil
}
