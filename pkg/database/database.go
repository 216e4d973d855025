// Package database opens the metadata store connection and ties it to the
// service lifecycle. PostgreSQL (pgx) and SQLite (go-sqlite3) are supported;
// the dialect is chosen by the connection URL scheme.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/delivery-notes/pkg/lifecycle"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotReady is returned when the connection is used before it is verified.
var ErrNotReady = errors.New("database not ready")

// System owns the shared *sql.DB.
type System interface {
	Connection() *sql.DB
	Dialect() Dialect
	Ping(ctx context.Context) error
	Start(lc *lifecycle.Coordinator) error
	Close() error
}

type database struct {
	conn   *sql.DB
	cfg    *Config
	logger *slog.Logger
}

// New opens a connection pool. No network I/O happens until first use.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	conn, err := sql.Open(cfg.Driver(), cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Dialect(), err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With("system", "database", "dialect", cfg.Dialect()),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Dialect() Dialect {
	return d.cfg.Dialect()
}

func (d *database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ConnTimeoutDuration())
	defer cancel()

	if err := d.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return nil
}

// Start verifies connectivity and registers the pool for shutdown.
func (d *database) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("starting database connection")

	if err := d.Ping(lc.Context()); err != nil {
		return err
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.logger.Info("closing database connection")
		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
		}
	})

	d.logger.Info("database connection established")
	return nil
}

func (d *database) Close() error {
	return d.conn.Close()
}
