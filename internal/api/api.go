// Package api assembles the delivery-notes HTTP module from the domain systems.
package api

import (
	"context"
	"net/http"

	"github.com/JaimeStill/delivery-notes/internal/config"
	"github.com/JaimeStill/delivery-notes/internal/infrastructure"
	"github.com/JaimeStill/delivery-notes/internal/metrics"
	"github.com/JaimeStill/delivery-notes/pkg/middleware"
	"github.com/JaimeStill/delivery-notes/pkg/module"
	"github.com/JaimeStill/delivery-notes/pkg/openapi"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// API is the mounted module and the domain systems behind it.
type API struct {
	Module *module.Module
	Domain *Domain

	runtime *Runtime
}

// New builds the API module. Routes are registered relative to the module
// and documented under cfg.API.BasePath.
func New(cfg *config.Config, infra *infrastructure.Infrastructure) (*API, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, Version)
	cfg.API.OpenAPI.Apply(spec)

	mux := http.NewServeMux()
	registerRoutes(mux, cfg.API.BasePath, spec, runtime, domain)

	specBytes, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(specBytes))

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(metrics.Middleware())
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return &API{
		Module:  m,
		Domain:  domain,
		runtime: runtime,
	}, nil
}

// Start runs after infrastructure start. Jobs left running by a previous
// process are marked failed.
func (a *API) Start(ctx context.Context) error {
	return a.Domain.Jobs.Recover(ctx)
}
