package jobs

import (
	"github.com/JaimeStill/delivery-notes/pkg/query"
	"github.com/JaimeStill/delivery-notes/pkg/repository"
)

var projection = query.NewProjectionMap("jobs", "j").
	Project("id", "Id").
	Project("status", "Status").
	Project("total_files", "TotalFiles").
	Project("total_pages", "TotalPages").
	Project("progress", "Progress").
	Project("notes_created", "NotesCreated").
	Project("warnings", "Warnings").
	Project("message", "Message").
	Project("created_at", "CreatedAt").
	Project("finished_at", "FinishedAt")

func scanJob(s repository.Scanner) (Job, error) {
	var j Job
	err := s.Scan(
		&j.ID,
		&j.Status,
		&j.TotalFiles,
		&j.TotalPages,
		&j.Progress,
		&j.NotesCreated,
		&j.Warnings,
		&j.Message,
		&j.CreatedAt,
		&j.FinishedAt,
	)
	return j, err
}
