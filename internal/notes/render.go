package notes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/pdf"
	"github.com/JaimeStill/delivery-notes/internal/sanitize"
	"github.com/JaimeStill/delivery-notes/pkg/blobs"
)

// DerivedKey is the blob key of the PDF holding pages of the source with
// the given hash. It depends only on its inputs, so equal selections share
// one cached blob.
func DerivedKey(sourceHash string, pages []int) string {
	sorted := slices.Clone(pages)
	slices.Sort(sorted)

	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = strconv.Itoa(p)
	}

	sum := sha256.Sum256([]byte(sourceHash + ":" + strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}

// Render returns the note's PDF, building and caching it on first use.
func (r *repo) Render(ctx context.Context, id uuid.UUID) (*Rendered, error) {
	note, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := r.documents.Find(ctx, note.DocumentID)
	if err != nil {
		return nil, err
	}

	key := DerivedKey(doc.ContentHash, note.PageNumbers)

	data, err := r.blobs.Get(ctx, key)
	if errors.Is(err, blobs.ErrNotFound) {
		data, err = r.renderShared(ctx, key, doc, note.PageNumbers)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("read derived pdf: %w", err)
	}

	return &Rendered{
		Note:     note,
		Filename: sanitize.Filename(note.DisplayName + ".pdf"),
		Data:     data,
	}, nil
}

// renderShared builds the derived PDF once per key for all concurrent
// callers. The shared work ignores the caller's cancellation so one client
// disconnecting does not fail the others waiting on the same key.
func (r *repo) renderShared(ctx context.Context, key string, doc *documents.Document, pages []int) ([]byte, error) {
	shared := context.WithoutCancel(ctx)

	v, err, _ := r.renders.Do(key, func() (any, error) {
		source, err := r.documents.Source(shared, doc)
		if err != nil {
			return nil, err
		}
		return r.build(shared, key, source, pages)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (r *repo) build(ctx context.Context, key string, source []byte, pages []int) ([]byte, error) {
	h, err := pdf.Open(source)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	data, err := h.Subset(pages)
	if err != nil {
		return nil, err
	}

	if err := r.blobs.PutKeyed(ctx, key, data); err != nil {
		r.logger.Warn("derived pdf not cached", "key", key, "error", err)
	} else {
		r.logger.Info("derived pdf cached", "key", key, "pages", pages)
	}
	return data, nil
}
