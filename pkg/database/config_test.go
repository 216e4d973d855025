package database_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/delivery-notes/pkg/database"
)

func TestConfig_Dialect(t *testing.T) {
	tests := []struct {
		url         string
		wantDialect database.Dialect
		wantDriver  string
	}{
		{"postgres://u:p@localhost/notes", database.Postgres, "pgx"},
		{"sqlite:///tmp/notes.db", database.SQLite, "sqlite3"},
		{"file:notes.db", database.SQLite, "sqlite3"},
		{"", database.Postgres, "pgx"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := &database.Config{URL: tt.url}
			if got := cfg.Dialect(); got != tt.wantDialect {
				t.Errorf("Dialect() = %s, want %s", got, tt.wantDialect)
			}
			if got := cfg.Driver(); got != tt.wantDriver {
				t.Errorf("Driver() = %s, want %s", got, tt.wantDriver)
			}
		})
	}
}

func TestConfig_Finalize_SQLite(t *testing.T) {
	cfg := &database.Config{URL: "sqlite:///tmp/notes.db?mode=rwc", MaxOpenConns: 10}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.MaxOpenConns != 1 {
		t.Errorf("MaxOpenConns = %d, want 1 for sqlite", cfg.MaxOpenConns)
	}

	dsn := cfg.Dsn()
	if !strings.HasPrefix(dsn, "file:/tmp/notes.db?") {
		t.Errorf("Dsn() = %q", dsn)
	}
	if !strings.Contains(dsn, "_foreign_keys=1") {
		t.Errorf("Dsn() = %q, want foreign keys enabled", dsn)
	}
	if !cfg.Migrate() {
		t.Error("Migrate() = false, want true by default")
	}
}

func TestConfig_Finalize_Postgres(t *testing.T) {
	cfg := &database.Config{Name: "notes", User: "svc", Password: "pw"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	want := "host=localhost port=5432 dbname=notes user=svc password=pw sslmode=disable"
	if got := cfg.Dsn(); got != want {
		t.Errorf("Dsn() = %q, want %q", got, want)
	}
	if cfg.MaxOpenConns != 25 {
		t.Errorf("MaxOpenConns = %d, want 25", cfg.MaxOpenConns)
	}
}

func TestConfig_Finalize_Env(t *testing.T) {
	t.Setenv("TEST_DB_URL", "sqlite:///tmp/env.db")
	t.Setenv("TEST_DB_AUTO_MIGRATE", "false")

	cfg := &database.Config{}
	err := cfg.Finalize(&database.Env{URL: "TEST_DB_URL", AutoMigrate: "TEST_DB_AUTO_MIGRATE"})
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if cfg.Dialect() != database.SQLite {
		t.Errorf("Dialect() = %s, want sqlite3", cfg.Dialect())
	}
	if cfg.Migrate() {
		t.Error("Migrate() = true, want false from env")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
	}{
		{"missing name", database.Config{User: "svc"}},
		{"missing user", database.Config{Name: "notes"}},
		{"bad timeout", database.Config{URL: "postgres://x", ConnTimeout: "soon"}},
		{"empty sqlite path", database.Config{URL: "sqlite://"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("Finalize() succeeded, want error")
			}
		})
	}
}
