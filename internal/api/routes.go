package api

import (
	"net/http"

	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/jobs"
	"github.com/JaimeStill/delivery-notes/internal/notes"
	"github.com/JaimeStill/delivery-notes/pkg/handlers"
	"github.com/JaimeStill/delivery-notes/pkg/openapi"
	"github.com/JaimeStill/delivery-notes/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	basePath string,
	spec *openapi.Spec,
	runtime *Runtime,
	domain *Domain,
) {
	documentsHandler := documents.NewHandler(domain.Documents, runtime.Logger, runtime.Pagination, runtime.Limits)
	notesHandler := notes.NewHandler(domain.Notes, runtime.Logger)
	jobsHandler := jobs.NewHandler(domain.Jobs, runtime.Logger, runtime.Limits)

	routes.Register(
		mux,
		basePath,
		spec,
		documentsHandler.Routes(jobsHandler.BatchRoute()),
		notesHandler.Routes(),
		jobsHandler.Routes(),
		healthRoutes(),
	)
}

func healthRoutes() routes.Group {
	return routes.Group{
		Prefix:      "/health",
		Tags:        []string{"Health"},
		Description: "Service health",
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "",
				Handler: handleHealth,
				OpenAPI: &openapi.Operation{
					Summary: "Health check",
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Service is up", "Health"),
					},
				},
			},
		},
		Schemas: map[string]*openapi.Schema{
			"Health": {
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"status": {Type: "string", Example: "ok"},
				},
			},
		},
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
