package api

import (
	"github.com/JaimeStill/delivery-notes/internal/allocations"
	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/jobs"
	"github.com/JaimeStill/delivery-notes/internal/notes"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Allocations *allocations.Registry
	Documents   documents.System
	Notes       notes.System
	Jobs        jobs.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	registry := allocations.New(db, runtime.Logger)

	documentsSys := documents.New(
		db,
		runtime.Blobs,
		registry,
		runtime.Logger,
		runtime.Pagination,
	)

	notesSys := notes.New(
		db,
		registry,
		documentsSys,
		runtime.Blobs,
		runtime.Logger,
	)

	jobsSys := jobs.New(
		db,
		documentsSys,
		notesSys,
		runtime.Extractor,
		runtime.Jobs,
		runtime.Logger,
	)

	return &Domain{
		Allocations: registry,
		Documents:   documentsSys,
		Notes:       notesSys,
		Jobs:        jobsSys,
	}
}
