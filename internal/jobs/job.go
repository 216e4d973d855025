// Package jobs runs batch extraction jobs: uploaded files are ingested as
// documents, their pages classified by the extractor, and the planned
// delivery notes inserted through the allocation registry. Progress is
// streamed to the caller as an ordered sequence of events.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Status is the state of a job as reported in events and job records.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusAnalyzing      Status = "analyzing"
	StatusProcessingFile Status = "processing_file"
	StatusCompleted      Status = "completed"
	StatusWarning        Status = "warning"
	StatusError          Status = "error"
)

// Job is the persisted record of a batch run.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	Status       Status     `json:"status"`
	TotalFiles   int        `json:"totalFiles"`
	TotalPages   int        `json:"totalPages"`
	Progress     int        `json:"progress"`
	NotesCreated int        `json:"notesCreated"`
	Warnings     int        `json:"warnings"`
	Message      *string    `json:"message"`
	CreatedAt    time.Time  `json:"createdAt"`
	FinishedAt   *time.Time `json:"finishedAt"`
}

// Event is one progress update on the job stream. Warning events naming a
// file or page do not end the job; the stream closes after the terminal
// event.
type Event struct {
	JobID        uuid.UUID `json:"job_id"`
	Status       Status    `json:"status"`
	CurrentFile  string    `json:"current_file,omitempty"`
	FileIndex    int       `json:"file_index,omitempty"`
	TotalFiles   int       `json:"total_files,omitempty"`
	Page         int       `json:"page,omitempty"`
	TotalPages   int       `json:"total_pages,omitempty"`
	Progress     int       `json:"progress"`
	Message      string    `json:"message,omitempty"`
	NotesCreated int       `json:"notes_created,omitempty"`
}
