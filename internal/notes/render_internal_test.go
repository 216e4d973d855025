package notes

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/delivery-notes/internal/allocations"
	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/migrations/migrationstest"
	"github.com/JaimeStill/delivery-notes/internal/pdf"
	"github.com/JaimeStill/delivery-notes/internal/pdf/pdftest"
	"github.com/JaimeStill/delivery-notes/pkg/blobs"
	"github.com/JaimeStill/delivery-notes/pkg/pagination"
)

// contextStore fails reads and writes on a done context, as the GCS
// backend does.
type contextStore struct {
	blobs.System
}

func (s contextStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.System.Get(ctx, key)
}

func (s contextStore) PutKeyed(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.System.PutKeyed(ctx, key, data)
}

func TestRenderShared_IgnoresCallerCancellation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := migrationstest.DB(t)

	fs, err := blobs.NewFilesystem(filepath.Join(t.TempDir(), "blobs"), logger)
	if err != nil {
		t.Fatalf("NewFilesystem() failed: %v", err)
	}
	store := contextStore{System: fs}

	registry := allocations.New(db, logger)
	docs := documents.New(db, store, registry, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
	r := New(db, registry, docs, store, logger).(*repo)

	doc, err := docs.Create(context.Background(), documents.CreateCommand{
		Filename: "scan.pdf",
		Data:     pdftest.Build(4),
	})
	if err != nil {
		t.Fatalf("documents.Create() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	key := DerivedKey(doc.ContentHash, []int{2, 3})
	data, err := r.renderShared(ctx, key, doc, []int{2, 3})
	if err != nil {
		t.Fatalf("renderShared() with cancelled caller failed: %v", err)
	}

	h, err := pdf.Open(data)
	if err != nil {
		t.Fatalf("pdf.Open() failed: %v", err)
	}
	defer h.Close()

	if got := h.PageCount(); got != 2 {
		t.Errorf("PageCount() = %d, want 2", got)
	}

	cached, err := fs.Exists(context.Background(), key)
	if err != nil || !cached {
		t.Errorf("derived blob cached = %v, %v, want true", cached, err)
	}
}
