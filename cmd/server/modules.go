package main

import (
	"context"
	"net/http"

	"github.com/JaimeStill/delivery-notes/internal/api"
	"github.com/JaimeStill/delivery-notes/internal/config"
	"github.com/JaimeStill/delivery-notes/internal/infrastructure"
	"github.com/JaimeStill/delivery-notes/internal/metrics"
	"github.com/JaimeStill/delivery-notes/pkg/module"
)

type Modules struct {
	API *api.API
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.New(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API: apiModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API.Module)
}

// Start runs module startup work that needs started infrastructure.
func (m *Modules) Start(ctx context.Context) error {
	return m.API.Start(ctx)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("NOT READY"))
			return
		}
		if err := infra.Database.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("DATABASE UNAVAILABLE"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})

	router.Handle("GET /metrics", metrics.Handler())

	return router
}
