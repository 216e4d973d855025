package documents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/internal/allocations"
	"github.com/JaimeStill/delivery-notes/internal/pdf"
	"github.com/JaimeStill/delivery-notes/internal/sanitize"
	"github.com/JaimeStill/delivery-notes/pkg/blobs"
	"github.com/JaimeStill/delivery-notes/pkg/pagination"
	"github.com/JaimeStill/delivery-notes/pkg/query"
	"github.com/JaimeStill/delivery-notes/pkg/repository"
)

type repo struct {
	db         *sql.DB
	blobs      blobs.System
	registry   *allocations.Registry
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository backed by the metadata store and the
// blob store. Deletes go through registry so they serialise with note
// allocation.
func New(db *sql.DB, store blobs.System, registry *allocations.Registry, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		blobs:      store,
		registry:   registry,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler(limits Limits) *Handler {
	return NewHandler(r, r.logger, r.pagination, limits)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "OriginalFilename")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.
		NewBuilder(projection).
		BuildSingle("Id", id)

	doc, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &doc, nil
}

// Create validates the upload as a PDF, stores its bytes and inserts the
// document row. The blob is shared by every document with the same bytes.
func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if !pdf.IsPDF(cmd.Data) {
		return nil, ErrUnsupportedType
	}

	handle, err := pdf.Open(cmd.Data)
	if err != nil {
		return nil, err
	}
	pageCount := handle.PageCount()
	handle.Close()

	ref, err := r.blobs.Put(ctx, cmd.Data)
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	doc := Document{
		ID:               uuid.New(),
		OriginalFilename: sanitize.Filename(cmd.Filename),
		ContentHash:      ref,
		PageCount:        pageCount,
		UploadedAt:       time.Now().UTC(),
	}

	q := `INSERT INTO documents (id, original_filename, content_hash, page_count, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, q, doc.ID, doc.OriginalFilename, doc.ContentHash, doc.PageCount, doc.UploadedAt)
		return struct{}{}, err
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document created",
		"id", doc.ID,
		"filename", doc.OriginalFilename,
		"pages", doc.PageCount,
		"hash", doc.ContentHash,
	)
	return &doc, nil
}

func (r *repo) Pages(ctx context.Context, id uuid.UUID) ([]Page, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	owners, err := r.registry.AllocatedPages(ctx, id)
	if err != nil {
		return nil, err
	}

	pages := make([]Page, doc.PageCount)
	for i := range pages {
		p := Page{PageNumber: i + 1}
		if owner, ok := owners[p.PageNumber]; ok {
			p.IsAllocated = true
			p.AllocatedTo = &owner
		}
		pages[i] = p
	}
	return pages, nil
}

func (r *repo) Source(ctx context.Context, doc *Document) ([]byte, error) {
	data, err := r.blobs.Get(ctx, doc.BlobRef())
	if err != nil {
		return nil, fmt.Errorf("read source %s: %w", doc.BlobRef(), err)
	}
	return data, nil
}

// Delete removes a document. Without cascade a document that still has
// delivery notes is rejected with ErrReferenced. Blobs are left for the
// collector since other documents may share them.
func (r *repo) Delete(ctx context.Context, id uuid.UUID, cascade bool) (*DeleteResult, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}

	var deleted int
	err := r.registry.FreeDocument(ctx, id, func(ctx context.Context, tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM delivery_notes WHERE document_id = $1`, id,
		).Scan(&deleted); err != nil {
			return fmt.Errorf("count notes: %w", err)
		}

		if deleted > 0 && !cascade {
			return fmt.Errorf("%w: %d notes", ErrReferenced, deleted)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM delivery_notes WHERE document_id = $1`, id); err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}
		return repository.ExecExpectOne(ctx, tx, `DELETE FROM documents WHERE id = $1`, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document deleted", "id", id, "deleted_notes", deleted)
	return &DeleteResult{Success: true, DeletedNotes: deleted}, nil
}
