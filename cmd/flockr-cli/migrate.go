package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var (
	migrationsDir string
	migrateDown   bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply the SQL migrations in the migrations directory.

Environment:
  DATABASE_URL  PostgreSQL connection string (required)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, err := requireEnv("DATABASE_URL")
		if err != nil {
			return err
		}

		fmt.Println("connecting to database...")
		m, err := migrate.New("file://"+migrationsDir, dbURL)
		if err != nil {
			return fmt.Errorf("migration init failed: %w", err)
		}
		defer m.Close()

		if migrateDown {
			fmt.Println("rolling back migrations...")
			err = m.Down()
		} else {
			fmt.Println("running migrations...")
			err = m.Up()
		}
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration failed: %w", err)
		}

		v, dirty, verr := m.Version()
		switch {
		case errors.Is(verr, migrate.ErrNilVersion):
			fmt.Println("database has no migrations applied")
		case errors.Is(err, migrate.ErrNoChange):
			fmt.Printf("no new migrations (current version: %d)\n", v)
		default:
			fmt.Printf("migrations applied (version: %d, dirty: %v)\n", v, dirty)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory holding the migration files")
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back every migration instead of applying them")
}
