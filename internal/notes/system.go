package notes

import (
	"context"

	"github.com/google/uuid"
)

// System defines the delivery note operations.
type System interface {
	Handler() *Handler
	List(ctx context.Context, filters Filters) ([]Note, error)
	Find(ctx context.Context, id uuid.UUID) (*Note, error)
	Create(ctx context.Context, cmd CreateCommand) (*Note, error)
	CreateBatch(ctx context.Context, documentID uuid.UUID, cmds []CreateCommand) ([]Note, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Note, error)
	Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error)
	Render(ctx context.Context, id uuid.UUID) (*Rendered, error)
}
