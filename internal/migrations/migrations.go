// Package migrations embeds the schema for each supported SQL dialect and
// applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/JaimeStill/delivery-notes/pkg/database"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationsFS embed.FS

// Up applies every pending migration for dialect. An up-to-date schema is
// not an error.
func Up(db *sql.DB, dialect database.Dialect, logger *slog.Logger) error {
	dir, driver, err := instance(db, dialect)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(dialect), driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations applied",
		"dialect", dialect,
		"version", version,
		"dirty", dirty,
	)
	return nil
}

func instance(db *sql.DB, dialect database.Dialect) (string, migratedb.Driver, error) {
	switch dialect {
	case database.Postgres:
		driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
		if err != nil {
			return "", nil, fmt.Errorf("postgres migration driver: %w", err)
		}
		return "postgres", driver, nil
	case database.SQLite:
		driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return "", nil, fmt.Errorf("sqlite migration driver: %w", err)
		}
		return "sqlite", driver, nil
	default:
		return "", nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}
