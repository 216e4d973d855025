// Package documents stores uploaded source PDFs and their metadata. Bytes
// are content-addressed in the blob store; every upload mints a new
// Document row even when its bytes match an earlier upload.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded source PDF.
type Document struct {
	ID               uuid.UUID `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	ContentHash      string    `json:"fileHash"`
	PageCount        int       `json:"pageCount"`
	UploadedAt       time.Time `json:"uploadDate"`
}

// BlobRef returns the blob store key of the source bytes.
func (d *Document) BlobRef() string {
	return d.ContentHash
}

// CreateCommand carries a validated upload.
type CreateCommand struct {
	Filename string
	Data     []byte
}

// Page reports whether a page of a document belongs to a delivery note.
type Page struct {
	PageNumber  int        `json:"pageNumber"`
	IsAllocated bool       `json:"isAllocated"`
	AllocatedTo *uuid.UUID `json:"allocatedTo,omitempty"`
}

// DeleteResult is returned by a successful delete.
type DeleteResult struct {
	Success      bool `json:"success"`
	DeletedNotes int  `json:"deletedNotes"`
}
