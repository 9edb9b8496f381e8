package database

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ry1and/flockr/internal/models"
)

// testPool returns a pgxpool.Pool connected to the test database.
// It skips the test if DATABASE_URL is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// testIDCounter provides unique IDs across all tests in the package.
// Starts well above zero to avoid conflicts with any existing data.
var testIDCounter int64 = 100000

func nextID() int64 {
	return atomic.AddInt64(&testIDCounter, 1)
}

func createTestUser(t *testing.T, pool *pgxpool.Pool) *models.User {
	t.Helper()
	id := nextID()
	u := &models.User{
		ID:           id,
		Email:        fmt.Sprintf("user%d@example.com", id),
		NameFirst:    "Test",
		NameLast:     "User",
		Handle:       fmt.Sprintf("u%d", id),
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$abc$def",
		CreatedAt:    time.Now().Truncate(time.Microsecond),
	}
	if err := NewUserRepository(pool).Create(context.Background(), u); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, u.ID)
	})
	return u
}

func createTestChannel(t *testing.T, pool *pgxpool.Pool, creatorID int64, public bool) *models.Channel {
	t.Helper()
	ch := &models.Channel{
		ID:        nextID(),
		Name:      "general",
		IsPublic:  public,
		CreatedAt: time.Now().Truncate(time.Microsecond),
	}
	repo := NewChannelRepository(pool)
	if err := repo.Create(context.Background(), ch, creatorID); err != nil {
		t.Fatalf("creating test channel: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), ch.ID) })
	return ch
}
