// Package migrate implements the database migration command.
package migrate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/annix-labs/fieldflow/internal/infrastructure/config"
	"github.com/annix-labs/fieldflow/internal/infrastructure/database"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/migrations"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// NewCommand creates the migrate command
func NewCommand() *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  "Apply the platform and meeting table schemas to the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(env)
		},
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, production)")

	return cmd
}

func runMigrations(env string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("running migrations", "environment", env, "database", cfg.Database.Database)

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	db := database.Get()
	if err := migrations.MigratePlatformTables(db); err != nil {
		return fmt.Errorf("platform migrations failed: %w", err)
	}
	if err := migrations.MigrateMeetingTables(db); err != nil {
		return fmt.Errorf("meeting migrations failed: %w", err)
	}

	log.Infow("migrations completed")
	return nil
}
