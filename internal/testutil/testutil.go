// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adboard/adboard/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420421

// AcquireDBLock grabs a global advisory lock to serialize DB tests across
// packages running in parallel.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// DropSchema removes the entity tables and both migration version tables so
// the next migrate run starts from scratch.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS ads, users, ads_schema_migrations, users_schema_migrations`)
	if err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

// ResetRateLimits clears the gateway's rate-limit buckets so a test starts
// with full buckets.
func ResetRateLimits(t *testing.T, store interface {
	Reset(ctx context.Context) (int, error)
}) {
	t.Helper()
	if _, err := store.Reset(context.Background()); err != nil {
		t.Fatalf("reset rate limits: %v", err)
	}
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// NewTestUser creates an unsaved user with a unique username.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	n := seq.Add(1)
	return &model.User{
		Username:     fmt.Sprintf("user-%d", n),
		Email:        fmt.Sprintf("user-%d@example.com", n),
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
	}
}

// NewTestAd creates an unsaved ad owned by userID.
func NewTestAd(t testing.TB, userID int64) *model.Ad {
	t.Helper()
	n := seq.Add(1)
	return &model.Ad{
		Title:       fmt.Sprintf("ad-%d", n),
		Description: "test listing",
		Price:       float64(n),
		UserID:      userID,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}
