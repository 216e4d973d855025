package notes

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/delivery-notes/internal/allocations"
	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/pdf"
)

// Domain errors for delivery note operations.
var (
	ErrNotFound   = errors.New("delivery note not found")
	ErrDuplicate  = errors.New("delivery note already exists")
	ErrValidation = errors.New("validation failed")
)

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, documents.ErrNotFound),
		errors.Is(err, allocations.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation),
		errors.Is(err, allocations.ErrPageOutOfRange),
		errors.Is(err, allocations.ErrEmptyClaim):
		return http.StatusBadRequest
	case errors.Is(err, allocations.ErrPagesAllocated), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, pdf.ErrCorrupt), errors.Is(err, pdf.ErrEncrypted):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
