package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	redisclient "github.com/Ry1and/flockr/internal/redis"
)

var (
	resetYes   bool
	resetRedis bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all users, channels and messages",
	Long: `Remove every row from the Flockr tables, returning the deployment to its
initial state. The next registered user becomes the global owner again.

Environment:
  DATABASE_URL  PostgreSQL connection string (required)
  REDIS_URL     Redis URL, used with --redis (default: redis://localhost:6379)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("refusing to delete data without --yes")
		}
		dbURL, err := requireEnv("DATABASE_URL")
		if err != nil {
			return err
		}
		return runReset(cmd.Context(), dbURL)
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm that all data should be deleted")
	resetCmd.Flags().BoolVar(&resetRedis, "redis", true, "also flush sessions, reset codes and queued messages from Redis")
}

// resetTables lists the tables in dependency order.
var resetTables = []string{"reactions", "messages", "channel_members", "channels", "users"}

func runReset(ctx context.Context, dbURL string) error {
	pool, err := connect(ctx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	fmt.Println("truncating tables...")
	if _, err := pool.Exec(ctx, "TRUNCATE "+strings.Join(resetTables, ", ")); err != nil {
		return fmt.Errorf("truncating tables: %w", err)
	}

	if resetRedis {
		fmt.Println("flushing redis...")
		rdb, err := redisclient.NewClient(envOr("REDIS_URL", "redis://localhost:6379"))
		if err != nil {
			return err
		}
		defer rdb.Close()
		if err := rdb.Flush(ctx); err != nil {
			return fmt.Errorf("flushing redis: %w", err)
		}
	}

	fmt.Println("reset complete")
	return nil
}
