package notes

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/pkg/query"
	"github.com/JaimeStill/delivery-notes/pkg/repository"
)

var projection = query.NewProjectionMap("delivery_notes", "n").
	Project("id", "Id").
	Project("document_id", "DocumentId").
	Project("display_name", "DisplayName").
	Project("company_name", "CompanyName").
	Project("delivery_date", "DeliveryDate").
	Project("delivery_note_number", "DeliveryNoteNumber").
	Project("shipping_id", "ShippingId").
	Project("customer_number", "CustomerNumber").
	Project("origin", "Origin").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{Field: "CreatedAt"}

func scanNote(s repository.Scanner) (Note, error) {
	var n Note
	err := s.Scan(
		&n.ID,
		&n.DocumentID,
		&n.DisplayName,
		&n.CompanyName,
		&n.DeliveryDate,
		&n.DeliveryNoteNumber,
		&n.ShippingID,
		&n.CustomerNumber,
		&n.Origin,
		&n.CreatedAt,
	)
	return n, err
}

type pageRow struct {
	noteID uuid.UUID
	page   int
}

func scanPageRow(s repository.Scanner) (pageRow, error) {
	var r pageRow
	err := s.Scan(&r.noteID, &r.page)
	return r, err
}

// Filters narrows note listings.
type Filters struct {
	DocumentID *uuid.UUID
}

// FiltersFromQuery reads document_id or documentId.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	raw := values.Get("document_id")
	if raw == "" {
		raw = values.Get("documentId")
	}
	if raw == "" {
		return f, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return f, fmt.Errorf("%w: document_id must be a uuid", ErrValidation)
	}
	f.DocumentID = &id
	return f, nil
}

// Apply adds filter conditions to the query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	if f.DocumentID == nil {
		return b
	}
	return b.WhereEquals("DocumentId", *f.DocumentID)
}
