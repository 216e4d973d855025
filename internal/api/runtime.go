package api

import (
	"github.com/JaimeStill/delivery-notes/internal/config"
	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/infrastructure"
	"github.com/JaimeStill/delivery-notes/internal/jobs"
	"github.com/JaimeStill/delivery-notes/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Limits     documents.Limits
	Jobs       jobs.Options
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Limits: documents.Limits{
			MaxFileSize:  cfg.Uploads.MaxFileSizeBytes(),
			MaxBatchSize: cfg.Uploads.MaxBatchSizeBytes(),
		},
		Jobs: jobs.Options{
			Timeout:         cfg.Jobs.TimeoutDuration(),
			FileConcurrency: cfg.Jobs.FileConcurrency,
		},
	}
}
