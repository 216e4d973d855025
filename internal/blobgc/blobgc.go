// Package blobgc removes blobs that no document or delivery note refers to.
//
// Source blobs are referenced by documents.content_hash. Derived note PDFs
// are referenced by the key notes.DerivedKey computes from a note's source
// hash and current pages. Uploads write the blob before the document row,
// so collection should run while no uploads are in flight.
package blobgc

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/internal/notes"
	"github.com/JaimeStill/delivery-notes/pkg/blobs"
	"github.com/JaimeStill/delivery-notes/pkg/repository"
)

// Options controls a collection pass.
type Options struct {
	// DryRun reports orphans without deleting them.
	DryRun bool
	// OnOrphan is called for every unreferenced key.
	OnOrphan func(key string)
}

// Result summarises a collection pass.
type Result struct {
	Scanned int
	Orphans int
	Deleted int
}

// Collect walks store and deletes every blob with no referrer in db.
func Collect(ctx context.Context, db *sql.DB, store blobs.System, opts Options, logger *slog.Logger) (*Result, error) {
	logger = logger.With("system", "blobgc")

	live, err := referenced(ctx, db)
	if err != nil {
		return nil, err
	}
	logger.Info("referenced blobs loaded", "count", len(live))

	var (
		result  Result
		orphans []string
	)
	err = store.Walk(ctx, func(key string) error {
		result.Scanned++
		if _, ok := live[key]; !ok {
			orphans = append(orphans, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk blobs: %w", err)
	}

	result.Orphans = len(orphans)
	for _, key := range orphans {
		if opts.OnOrphan != nil {
			opts.OnOrphan(key)
		}
		if opts.DryRun {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			return &result, fmt.Errorf("delete %s: %w", key, err)
		}
		result.Deleted++
	}

	logger.Info("collection complete",
		"scanned", result.Scanned,
		"orphans", result.Orphans,
		"deleted", result.Deleted,
		"dry_run", opts.DryRun,
	)
	return &result, nil
}

type allocationRow struct {
	noteID uuid.UUID
	hash   string
	page   int
}

func referenced(ctx context.Context, db *sql.DB) (map[string]struct{}, error) {
	hashes, err := repository.QueryMany(ctx, db,
		`SELECT DISTINCT content_hash FROM documents`, nil,
		func(s repository.Scanner) (string, error) {
			var h string
			err := s.Scan(&h)
			return h, err
		})
	if err != nil {
		return nil, fmt.Errorf("load document hashes: %w", err)
	}

	rows, err := repository.QueryMany(ctx, db, `
		SELECT a.note_id, d.content_hash, a.page_number
		FROM page_allocations a
		JOIN documents d ON d.id = a.document_id`, nil,
		func(s repository.Scanner) (allocationRow, error) {
			var r allocationRow
			err := s.Scan(&r.noteID, &r.hash, &r.page)
			return r, err
		})
	if err != nil {
		return nil, fmt.Errorf("load note pages: %w", err)
	}

	live := make(map[string]struct{}, len(hashes)+len(rows))
	for _, h := range hashes {
		live[h] = struct{}{}
	}

	type derived struct {
		hash  string
		pages []int
	}
	byNote := make(map[uuid.UUID]*derived)
	for _, r := range rows {
		d, ok := byNote[r.noteID]
		if !ok {
			d = &derived{hash: r.hash}
			byNote[r.noteID] = d
		}
		d.pages = append(d.pages, r.page)
	}
	for _, d := range byNote {
		live[notes.DerivedKey(d.hash, d.pages)] = struct{}{}
	}
	return live, nil
}
