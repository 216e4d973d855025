package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/pkg/pagination"
)

// System defines the document management operations.
// Implementations handle blob storage and database persistence.
type System interface {
	Handler(limits Limits) *Handler
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error)
	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Pages(ctx context.Context, id uuid.UUID) ([]Page, error)
	Source(ctx context.Context, doc *Document) ([]byte, error)
	Delete(ctx context.Context, id uuid.UUID, cascade bool) (*DeleteResult, error)
}
