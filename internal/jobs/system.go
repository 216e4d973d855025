package jobs

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/internal/documents"
)

// System defines the batch job operations.
type System interface {
	Handler(limits documents.Limits) *Handler
	// Available reports whether an extractor backend is configured.
	Available() bool
	// Start ingests uploads and runs the job in the background. Cancelling
	// ctx cancels the job.
	Start(ctx context.Context, uploads []documents.Upload) (*Run, error)
	Find(ctx context.Context, id uuid.UUID) (*Job, error)
	// Recover fails jobs that a previous process left unfinished.
	Recover(ctx context.Context) error
}

// Run is a started job and its event stream.
type Run struct {
	Job *Job
	em  *emitter
}

// Events returns the job's events in emission order. The channel closes
// after the terminal event.
func (r *Run) Events() <-chan Event {
	return r.em.events()
}

// Release stops event delivery. The job keeps running until its context is
// cancelled.
func (r *Run) Release() {
	r.em.detach()
}
