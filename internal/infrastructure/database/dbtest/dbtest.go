// Package dbtest opens throwaway SQLite databases migrated to the current
// schema for use in tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/nerrad567/iotconnect-core/internal/infrastructure/database"
	_ "github.com/nerrad567/iotconnect-core/migrations" // registers the embedded schema
)

// New returns a migrated database in a per-test temp directory. The
// database is closed when the test ends.
func New(t testing.TB) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db.DB
}

// SeedUser inserts a bare account for email and returns its id.
func SeedUser(t testing.TB, db *sql.DB, email string) string {
	t.Helper()

	id := "usr-" + email
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, email, username, mqtt_user, mqtt_pass) VALUES (?, ?, ?, ?, ?)`,
		id, email, email, "broker-"+email, "pass-"+email,
	)
	if err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}
	return id
}
