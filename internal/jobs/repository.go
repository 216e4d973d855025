package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/pkg/query"
	"github.com/JaimeStill/delivery-notes/pkg/repository"
)

// store persists job records.
type store struct {
	db *sql.DB
}

func (s *store) create(ctx context.Context, j *Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, total_files, total_pages, progress, notes_created, warnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		j.ID, string(j.Status), j.TotalFiles, j.TotalPages, j.Progress, j.NotesCreated, j.Warnings, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// advance records a running job's current status. Finished jobs are left
// untouched.
func (s *store) advance(ctx context.Context, j *Job) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = $1, total_pages = $2, progress = $3
		WHERE id = $4 AND finished_at IS NULL`,
		string(j.Status), j.TotalPages, j.Progress, j.ID,
	)
	if err != nil {
		return fmt.Errorf("advance job: %w", err)
	}
	return nil
}

func (s *store) finish(ctx context.Context, j *Job) error {
	err := repository.ExecExpectOne(ctx, s.db,
		`UPDATE jobs SET status = $1, total_pages = $2, progress = $3, notes_created = $4,
			warnings = $5, message = $6, finished_at = $7
		WHERE id = $8`,
		string(j.Status), j.TotalPages, j.Progress, j.NotesCreated,
		j.Warnings, j.Message, j.FinishedAt, j.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (s *store) find(ctx context.Context, id uuid.UUID) (*Job, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Id", id)

	j, err := repository.QueryOne(ctx, s.db, q, args, scanJob)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &j, nil
}

// interrupt marks jobs left unfinished by a previous process as failed.
func (s *store) interrupt(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = $1, message = $2, finished_at = $3 WHERE finished_at IS NULL`,
		string(StatusError), "interrupted", time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("interrupt jobs: %w", err)
	}
	return res.RowsAffected()
}
