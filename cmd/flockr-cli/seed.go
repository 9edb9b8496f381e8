package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/snowflake"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo data (users, channels, messages)",
	Long: `Seed the database with demo data: 2 users, a public and a private
channel, and a few messages. The first user is the global owner.

Environment:
  DATABASE_URL  PostgreSQL connection string (required)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, err := requireEnv("DATABASE_URL")
		if err != nil {
			return err
		}
		return runSeed(cmd.Context(), dbURL)
	},
}

func connect(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	fmt.Println("connecting to database...")
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

func runSeed(ctx context.Context, dbURL string) error {
	pool, err := connect(ctx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	sf, err := snowflake.NewGenerator(0)
	if err != nil {
		return fmt.Errorf("snowflake init failed: %w", err)
	}

	fmt.Println("hashing passwords...")
	aliceHash, err := auth.HashPassword("password123")
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	bobHash, err := auth.HashPassword("password456")
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	aliceID := sf.Generate().Int64()
	bobID := sf.Generate().Int64()
	generalID := sf.Generate().Int64()
	plansID := sf.Generate().Int64()
	msg1ID := sf.Generate().Int64()
	msg2ID := sf.Generate().Int64()
	msg3ID := sf.Generate().Int64()

	now := time.Now()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	fmt.Println("creating users...")
	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, name_first, name_last, handle, password_hash, is_global_owner, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,true,$7), ($8,$9,$10,$11,$12,$13,false,$14)
		 ON CONFLICT DO NOTHING`,
		aliceID, "alice@example.com", "Alice", "Liddell", "aliceliddell", aliceHash, now,
		bobID, "bob@example.com", "Bob", "Builder", "bobbuilder", bobHash, now,
	)
	if err != nil {
		return fmt.Errorf("creating users: %w", err)
	}

	fmt.Println("creating channels...")
	_, err = tx.Exec(ctx,
		`INSERT INTO channels (id, name, is_public, created_at) VALUES ($1,$2,true,$3), ($4,$5,false,$6)
		 ON CONFLICT (id) DO NOTHING`,
		generalID, "general", now,
		plansID, "plans", now,
	)
	if err != nil {
		return fmt.Errorf("creating channels: %w", err)
	}

	fmt.Println("creating members...")
	_, err = tx.Exec(ctx,
		`INSERT INTO channel_members (channel_id, user_id, is_owner, joined_at, owner_since)
		 VALUES ($1,$2,true,$3,$3), ($4,$5,false,$3,NULL), ($6,$7,true,$3,$3)
		 ON CONFLICT (channel_id, user_id) DO NOTHING`,
		generalID, aliceID, now,
		generalID, bobID,
		plansID, aliceID,
	)
	if err != nil {
		return fmt.Errorf("creating members: %w", err)
	}

	fmt.Println("creating messages...")
	_, err = tx.Exec(ctx,
		`INSERT INTO messages (id, channel_id, author_id, content, created_at)
		 VALUES ($1,$2,$3,$4,$5), ($6,$7,$8,$9,$10), ($11,$12,$13,$14,$15)
		 ON CONFLICT (id) DO NOTHING`,
		msg1ID, generalID, aliceID, "Welcome to Flockr!", now,
		msg2ID, generalID, bobID, "Hey Alice, glad to be here!", now.Add(time.Second),
		msg3ID, plansID, aliceID, "Only owners of #plans can pin things here.", now,
	)
	if err != nil {
		return fmt.Errorf("creating messages: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	fmt.Println()
	fmt.Println("seed complete:")
	fmt.Printf("  users:    alice@example.com (password123, global owner), bob@example.com (password456)\n")
	fmt.Printf("  channels: #general (public), #plans (private)\n")
	fmt.Printf("  messages: 3 messages in #general and #plans\n")
	return nil
}
