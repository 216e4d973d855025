// Package allocations is the authority over which delivery note owns each
// page of a document. All mutations for a document are serialised and run
// in a single transaction together with the caller's note row changes.
package allocations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/pkg/repository"
)

// Claim requests pages for a note. Insert writes the note row inside the
// allocation transaction, before the allocation rows that reference it.
type Claim struct {
	NoteID uuid.UUID
	Pages  []int
	Insert func(ctx context.Context, tx *sql.Tx) error
}

// TxFunc runs inside an allocation transaction.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

type documentLock struct {
	mu sync.RWMutex
	// pages caches the committed allocations; nil until first loaded.
	pages map[int]uuid.UUID
}

// Registry serialises allocation changes per document.
type Registry struct {
	db     *sql.DB
	logger *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*documentLock
}

func New(db *sql.DB, logger *slog.Logger) *Registry {
	return &Registry{
		db:     db,
		logger: logger.With("system", "allocations"),
		locks:  make(map[uuid.UUID]*documentLock),
	}
}

func (r *Registry) lock(documentID uuid.UUID) *documentLock {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[documentID]
	if !ok {
		l = &documentLock{}
		r.locks[documentID] = l
	}
	return l
}

// Allocate checks every claim against the committed allocations and against
// each other, then writes the note rows and allocation rows in one
// transaction. Either all claims land or none do. Overlaps are reported as a
// *ConflictError listing the contested pages.
func (r *Registry) Allocate(ctx context.Context, documentID uuid.UUID, claims ...Claim) error {
	if len(claims) == 0 {
		return nil
	}
	for _, c := range claims {
		if len(c.Pages) == 0 {
			return ErrEmptyClaim
		}
	}

	l := r.lock(documentID)
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (map[int]uuid.UUID, error) {
		pageCount, err := documentPageCount(ctx, tx, documentID)
		if err != nil {
			return nil, err
		}

		current, err := loadAllocations(ctx, tx, documentID)
		if err != nil {
			return nil, err
		}

		next := maps.Clone(current)
		var conflicts []int
		for _, c := range claims {
			for _, p := range c.Pages {
				if p < 1 || p > pageCount {
					return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, p, pageCount)
				}
				if owner, taken := next[p]; taken && owner != c.NoteID {
					conflicts = append(conflicts, p)
					continue
				}
				next[p] = c.NoteID
			}
		}
		if len(conflicts) > 0 {
			return nil, &ConflictError{Pages: sortedUnique(conflicts)}
		}

		for _, c := range claims {
			if c.Insert != nil {
				if err := c.Insert(ctx, tx); err != nil {
					return nil, err
				}
			}
			if err := insertAllocations(ctx, tx, documentID, c); err != nil {
				return nil, err
			}
		}
		return next, nil
	})
	if err != nil {
		l.pages = nil
		return err
	}

	l.pages = current
	r.logger.Info("pages allocated", "document_id", documentID, "notes", len(claims))
	return nil
}

// Free releases every page of noteID and runs remove in the same
// transaction. It returns the freed pages in ascending order.
func (r *Registry) Free(ctx context.Context, documentID, noteID uuid.UUID, remove TxFunc) ([]int, error) {
	l := r.lock(documentID)
	l.mu.Lock()
	defer l.mu.Unlock()

	freed, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]int, error) {
		pages, err := repository.QueryMany(ctx, tx,
			`SELECT page_number FROM page_allocations WHERE note_id = $1 ORDER BY page_number`,
			[]any{noteID}, scanPage)
		if err != nil {
			return nil, fmt.Errorf("query note pages: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM page_allocations WHERE note_id = $1`, noteID); err != nil {
			return nil, fmt.Errorf("delete allocations: %w", err)
		}

		if remove != nil {
			if err := remove(ctx, tx); err != nil {
				return nil, err
			}
		}
		return pages, nil
	})
	if err != nil {
		l.pages = nil
		return nil, err
	}

	if l.pages != nil {
		for _, p := range freed {
			delete(l.pages, p)
		}
	}

	r.logger.Info("pages freed", "document_id", documentID, "note_id", noteID, "pages", len(freed))
	return freed, nil
}

// FreeDocument releases every allocation of a document and runs remove in
// the same transaction. remove is expected to delete the document row and
// its notes.
func (r *Registry) FreeDocument(ctx context.Context, documentID uuid.UUID, remove TxFunc) error {
	l := r.lock(documentID)
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM page_allocations WHERE document_id = $1`, documentID); err != nil {
			return struct{}{}, fmt.Errorf("delete allocations: %w", err)
		}
		if remove != nil {
			return struct{}{}, remove(ctx, tx)
		}
		return struct{}{}, nil
	})
	if err != nil {
		l.pages = nil
		return err
	}

	l.pages = nil
	r.mu.Lock()
	delete(r.locks, documentID)
	r.mu.Unlock()
	return nil
}

// Serialize runs fn in a transaction while holding the document's lock,
// for note changes that leave allocations untouched.
func (r *Registry) Serialize(ctx context.Context, documentID uuid.UUID, fn TxFunc) error {
	l := r.lock(documentID)
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, fn(ctx, tx)
	})
	return err
}

// AllocatedPages returns the owner of every allocated page of a document.
func (r *Registry) AllocatedPages(ctx context.Context, documentID uuid.UUID) (map[int]uuid.UUID, error) {
	l := r.lock(documentID)

	l.mu.RLock()
	if l.pages != nil {
		out := maps.Clone(l.pages)
		l.mu.RUnlock()
		return out, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pages == nil {
		pages, err := loadAllocations(ctx, r.db, documentID)
		if err != nil {
			return nil, err
		}
		l.pages = pages
	}
	return maps.Clone(l.pages), nil
}

func documentPageCount(ctx context.Context, q repository.Querier, documentID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT page_count FROM documents WHERE id = $1`, documentID).Scan(&n)
	if err != nil {
		return 0, repository.MapError(err, ErrDocumentNotFound, ErrDocumentNotFound)
	}
	return n, nil
}

type allocation struct {
	page int
	note uuid.UUID
}

func loadAllocations(ctx context.Context, q repository.Querier, documentID uuid.UUID) (map[int]uuid.UUID, error) {
	rows, err := repository.QueryMany(ctx, q,
		`SELECT page_number, note_id FROM page_allocations WHERE document_id = $1`,
		[]any{documentID},
		func(s repository.Scanner) (allocation, error) {
			var a allocation
			err := s.Scan(&a.page, &a.note)
			return a, err
		})
	if err != nil {
		return nil, fmt.Errorf("load allocations: %w", err)
	}

	pages := make(map[int]uuid.UUID, len(rows))
	for _, a := range rows {
		pages[a.page] = a.note
	}
	return pages, nil
}

func insertAllocations(ctx context.Context, tx *sql.Tx, documentID uuid.UUID, c Claim) error {
	for _, p := range sortedUnique(c.Pages) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO page_allocations (document_id, page_number, note_id) VALUES ($1, $2, $3)`,
			documentID, p, c.NoteID)
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return &ConflictError{Pages: []int{p}}
			}
			return fmt.Errorf("insert allocation: %w", err)
		}
	}
	return nil
}

func scanPage(s repository.Scanner) (int, error) {
	var p int
	err := s.Scan(&p)
	return p, err
}

func sortedUnique(pages []int) []int {
	out := slices.Clone(pages)
	slices.Sort(out)
	return slices.Compact(out)
}
