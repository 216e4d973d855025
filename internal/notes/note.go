// Package notes manages delivery notes: named subsets of a document's pages
// with the metadata read from them. Page ownership is delegated to the
// allocation registry; the derived PDF of a note is rendered on first
// download and cached in the blob store.
package notes

import (
	"time"

	"github.com/google/uuid"
)

// Origin records how a note was created.
type Origin string

const (
	OriginManual Origin = "manual"
	OriginAI     Origin = "ai"
)

// Note is a delivery note. PageNumbers is sorted ascending.
type Note struct {
	ID                 uuid.UUID `json:"id"`
	DocumentID         uuid.UUID `json:"documentId"`
	DisplayName        string    `json:"displayName"`
	CompanyName        string    `json:"companyName"`
	DeliveryDate       *string   `json:"deliveryDate"`
	DeliveryNoteNumber *string   `json:"deliveryNoteNumber"`
	ShippingID         *string   `json:"shippingId"`
	CustomerNumber     *string   `json:"customerNumber"`
	PageNumbers        []int     `json:"pageNumbers"`
	Origin             Origin    `json:"origin"`
	CreatedAt          time.Time `json:"createdAt"`
}

// CreateCommand describes a note to create.
type CreateCommand struct {
	DocumentID         uuid.UUID
	DisplayName        string
	CompanyName        string
	DeliveryDate       *string
	DeliveryNoteNumber *string
	ShippingID         *string
	CustomerNumber     *string
	PageNumbers        []int
	Origin             Origin
}

// FieldUpdate is one optional field of a patch. A set field with a nil or
// empty value clears the stored value.
type FieldUpdate struct {
	Set   bool
	Value *string
}

// UpdateCommand patches the optional metadata of a note.
type UpdateCommand struct {
	DeliveryDate       FieldUpdate
	DeliveryNoteNumber FieldUpdate
	ShippingID         FieldUpdate
	CustomerNumber     FieldUpdate
}

// Empty reports whether the patch changes nothing.
func (c UpdateCommand) Empty() bool {
	return !c.DeliveryDate.Set && !c.DeliveryNoteNumber.Set && !c.ShippingID.Set && !c.CustomerNumber.Set
}

// CreateResult is returned by a successful create.
type CreateResult struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// DeleteResult is returned by a successful delete.
type DeleteResult struct {
	Success    bool  `json:"success"`
	FreedPages []int `json:"freedPages"`
}

// Rendered is a note's derived PDF.
type Rendered struct {
	Note     *Note
	Filename string
	Data     []byte
}
