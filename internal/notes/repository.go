package notes

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/JaimeStill/delivery-notes/internal/allocations"
	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/metrics"
	"github.com/JaimeStill/delivery-notes/internal/sanitize"
	"github.com/JaimeStill/delivery-notes/pkg/blobs"
	"github.com/JaimeStill/delivery-notes/pkg/query"
	"github.com/JaimeStill/delivery-notes/pkg/repository"
)

type repo struct {
	db        *sql.DB
	registry  *allocations.Registry
	documents documents.System
	blobs     blobs.System
	renders   singleflight.Group
	logger    *slog.Logger
}

// New creates the delivery note system.
func New(db *sql.DB, registry *allocations.Registry, docs documents.System, store blobs.System, logger *slog.Logger) System {
	return &repo{
		db:        db,
		registry:  registry,
		documents: docs,
		blobs:     store,
		logger:    logger.With("system", "notes"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context, filters Filters) ([]Note, error) {
	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	q, args := qb.Build()
	notes, err := repository.QueryMany(ctx, r.db, q, args, scanNote)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}

	pageQ := `SELECT note_id, page_number FROM page_allocations ORDER BY page_number`
	var pageArgs []any
	if filters.DocumentID != nil {
		pageQ = `SELECT note_id, page_number FROM page_allocations WHERE document_id = $1 ORDER BY page_number`
		pageArgs = []any{*filters.DocumentID}
	}

	rows, err := repository.QueryMany(ctx, r.db, pageQ, pageArgs, scanPageRow)
	if err != nil {
		return nil, fmt.Errorf("query note pages: %w", err)
	}

	pages := make(map[uuid.UUID][]int, len(notes))
	for _, row := range rows {
		pages[row.noteID] = append(pages[row.noteID], row.page)
	}
	for i := range notes {
		notes[i].PageNumbers = pages[notes[i].ID]
		if notes[i].PageNumbers == nil {
			notes[i].PageNumbers = []int{}
		}
	}
	return notes, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Note, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Id", id)

	note, err := repository.QueryOne(ctx, r.db, q, args, scanNote)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	pages, err := repository.QueryMany(ctx, r.db,
		`SELECT page_number FROM page_allocations WHERE note_id = $1 ORDER BY page_number`,
		[]any{id},
		func(s repository.Scanner) (int, error) {
			var p int
			err := s.Scan(&p)
			return p, err
		})
	if err != nil {
		return nil, fmt.Errorf("query note pages: %w", err)
	}

	note.PageNumbers = pages
	return &note, nil
}

// Create inserts a single note and claims its pages.
func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Note, error) {
	notes, err := r.CreateBatch(ctx, cmd.DocumentID, []CreateCommand{cmd})
	if err != nil {
		return nil, err
	}
	return &notes[0], nil
}

// CreateBatch inserts every note of cmds in one allocation: either all of
// them are stored or none is.
func (r *repo) CreateBatch(ctx context.Context, documentID uuid.UUID, cmds []CreateCommand) ([]Note, error) {
	if len(cmds) == 0 {
		return []Note{}, nil
	}

	now := time.Now().UTC()
	notes := make([]Note, len(cmds))
	claims := make([]allocations.Claim, len(cmds))

	for i, cmd := range cmds {
		pages, err := normalizePages(cmd.PageNumbers)
		if err != nil {
			return nil, err
		}
		if len(pages) == 0 {
			return nil, fmt.Errorf("%w: pageNumbers is required", ErrValidation)
		}

		origin := cmd.Origin
		if origin == "" {
			origin = OriginManual
		}

		note := Note{
			ID:                 uuid.New(),
			DocumentID:         documentID,
			DisplayName:        sanitize.Text(cmd.DisplayName),
			CompanyName:        sanitize.Text(cmd.CompanyName),
			DeliveryDate:       sanitize.OptionalText(cmd.DeliveryDate),
			DeliveryNoteNumber: sanitize.OptionalText(cmd.DeliveryNoteNumber),
			ShippingID:         sanitize.OptionalText(cmd.ShippingID),
			CustomerNumber:     sanitize.OptionalText(cmd.CustomerNumber),
			PageNumbers:        pages,
			Origin:             origin,
			CreatedAt:          now,
		}
		if note.DisplayName == "" {
			return nil, fmt.Errorf("%w: displayName is required", ErrValidation)
		}

		notes[i] = note
		claims[i] = allocations.Claim{
			NoteID: note.ID,
			Pages:  pages,
			Insert: insertNote(note),
		}
	}

	if err := r.registry.Allocate(ctx, documentID, claims...); err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	for _, n := range notes {
		metrics.NotesCreated(string(n.Origin), 1)
		r.logger.Info("delivery note created",
			"id", n.ID,
			"document_id", documentID,
			"origin", n.Origin,
			"pages", n.PageNumbers,
		)
	}
	return notes, nil
}

func insertNote(n Note) allocations.TxFunc {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO delivery_notes (id, document_id, display_name, company_name, delivery_date,
				delivery_note_number, shipping_id, customer_number, origin, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			n.ID, n.DocumentID, n.DisplayName, n.CompanyName, n.DeliveryDate,
			n.DeliveryNoteNumber, n.ShippingID, n.CustomerNumber, string(n.Origin), n.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return nil
	}
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Note, error) {
	note, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.Empty() {
		return note, nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, f FieldUpdate) {
		if !f.Set {
			return
		}
		args = append(args, sanitize.OptionalText(f.Value))
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("delivery_date", cmd.DeliveryDate)
	add("delivery_note_number", cmd.DeliveryNoteNumber)
	add("shipping_id", cmd.ShippingID)
	add("customer_number", cmd.CustomerNumber)

	args = append(args, id)
	q := fmt.Sprintf("UPDATE delivery_notes SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	err = r.registry.Serialize(ctx, note.DocumentID, func(ctx context.Context, tx *sql.Tx) error {
		return repository.ExecExpectOne(ctx, tx, q, args...)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("delivery note updated", "id", id)
	return r.Find(ctx, id)
}

// Delete removes the note and frees its pages.
func (r *repo) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	note, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	freed, err := r.registry.Free(ctx, note.DocumentID, id, func(ctx context.Context, tx *sql.Tx) error {
		return repository.ExecExpectOne(ctx, tx, `DELETE FROM delivery_notes WHERE id = $1`, id)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("delivery note deleted", "id", id, "freed_pages", freed)
	return &DeleteResult{Success: true, FreedPages: freed}, nil
}
