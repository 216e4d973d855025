// Package migrationstest opens migrated throwaway databases for tests.
package migrationstest

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/delivery-notes/internal/migrations"
	"github.com/JaimeStill/delivery-notes/pkg/database"
)

// SQLite returns a migrated SQLite database in a temporary directory. It is
// closed when the test ends.
func SQLite(t testing.TB) database.System {
	t.Helper()

	cfg := &database.Config{URL: "sqlite://" + filepath.Join(t.TempDir(), "test.db")}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("database config: %v", err)
	}

	return open(t, cfg)
}

// Open connects with cfg and applies migrations.
func Open(t testing.TB, cfg *database.Config) database.System {
	t.Helper()
	return open(t, cfg)
}

func open(t testing.TB, cfg *database.Config) database.System {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.New(cfg, logger)
	if err != nil {
		t.Fatalf("database.New() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Up(db.Connection(), db.Dialect(), logger); err != nil {
		t.Fatalf("migrations.Up() failed: %v", err)
	}
	return db
}

// DB is shorthand for SQLite(t).Connection().
func DB(t testing.TB) *sql.DB {
	t.Helper()
	return SQLite(t).Connection()
}
