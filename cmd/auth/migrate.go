package main

import (
	"fmt"
	"os"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/adapters/db/postgres"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/infra/migrate"
	"github.com/spf13/cobra"
)

func NewMigrateCmd() *cobra.Command {
	var (
		databaseURL string
		down        bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the accounts schema",
		Long:  `Runs the embedded PostgreSQL migrations. DATABASE_URL is used when --database-url is not given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL or --database-url is required")
			}
			return runMigrate(cmd, databaseURL, down)
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration")
	return cmd
}

func runMigrate(cmd *cobra.Command, databaseURL string, down bool) error {
	cmd.Println("Connecting to database...")
	db, err := postgres.Open(databaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("db handle: %w", err)
	}
	defer sqlDB.Close()

	if down {
		cmd.Println("Rolling back migrations...")
		if err := migrate.Down(sqlDB); err != nil {
			return fmt.Errorf("roll back migrations: %w", err)
		}
		cmd.Println("Rollback completed")
		return nil
	}

	cmd.Println("Running migrations...")
	if err := migrate.Up(sqlDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	cmd.Println("Migrations completed successfully")
	return nil
}
