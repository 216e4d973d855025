package jobs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/extractor"
	"github.com/JaimeStill/delivery-notes/pkg/handlers"
	"github.com/JaimeStill/delivery-notes/pkg/routes"
)

// UploadField is the repeated multipart field of a batch request.
const UploadField = "files"

// Handler provides the batch processing stream and job lookup.
type Handler struct {
	sys    System
	logger *slog.Logger
	limits documents.Limits
}

func NewHandler(sys System, logger *slog.Logger, limits documents.Limits) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "jobs"),
		limits: limits,
	}
}

// BatchRoute is mounted on the documents group.
func (h *Handler) BatchRoute() routes.Route {
	return routes.Route{
		Method:  "POST",
		Pattern: "/batch-process",
		Handler: h.BatchProcess,
		OpenAPI: Spec.BatchProcess,
	}
}

// Routes returns the job lookup route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/jobs",
		Tags:        []string{"Jobs"},
		Description: "Batch extraction job records",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: Spec.Find},
		},
		Schemas: Spec.Schemas(),
	}
}

func (h *Handler) BatchProcess(w http.ResponseWriter, r *http.Request) {
	if !h.sys.Available() {
		handlers.RespondError(w, h.logger, http.StatusServiceUnavailable, extractor.ErrUnavailable)
		return
	}

	uploads, err := documents.ReadUploads(w, r, UploadField, h.limits)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	run, err := h.sys.Start(r.Context(), uploads)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer run.Release()

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("write deadline not cleared", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Job-ID", run.Job.ID.String())
	w.WriteHeader(http.StatusOK)
	rc.Flush()

	for event := range run.Events() {
		data, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("failed to marshal event", "error", err)
			continue
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			h.logger.Info("event stream closed by client", "job_id", run.Job.ID)
			return
		}
		rc.Flush()
	}
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNotFound)
		return
	}

	job, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, job)
}
