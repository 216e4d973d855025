// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, blob storage and the
// extractor) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/delivery-notes/internal/config"
	"github.com/JaimeStill/delivery-notes/internal/extractor"
	"github.com/JaimeStill/delivery-notes/internal/migrations"
	"github.com/JaimeStill/delivery-notes/pkg/blobs"
	"github.com/JaimeStill/delivery-notes/pkg/database"
	"github.com/JaimeStill/delivery-notes/pkg/lifecycle"
	"github.com/JaimeStill/delivery-notes/pkg/logging"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Blobs     blobs.System
	Cache     extractor.Cache
	Extractor *extractor.Extractor

	autoMigrate bool
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := logging.New(&cfg.Logging)
	return NewWithLogger(cfg, logger)
}

// NewWithLogger is New with a caller-supplied logger.
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	lc := lifecycle.New()

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := blobs.New(context.Background(), &cfg.Blobs, logger)
	if err != nil {
		return nil, fmt.Errorf("blob store init failed: %w", err)
	}

	cache := extractor.NewCache(&cfg.Cache, logger)

	ex, err := extractor.FromConfig(&cfg.Extractor, cache, logger)
	if err != nil {
		return nil, fmt.Errorf("extractor init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle:   lc,
		Logger:      logger,
		Database:    db,
		Blobs:       store,
		Cache:       cache,
		Extractor:   ex,
		autoMigrate: cfg.Database.Migrate(),
	}, nil
}

// Start initializes all infrastructure systems and registers them with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.autoMigrate {
		if err := migrations.Up(i.Database.Connection(), i.Database.Dialect(), i.Logger); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
	}
	if err := i.Blobs.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("blob store start failed: %w", err)
	}
	if starter, ok := i.Cache.(interface {
		Start(lc *lifecycle.Coordinator) error
	}); ok {
		if err := starter.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("cache start failed: %w", err)
		}
	}
	return nil
}
