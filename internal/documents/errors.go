package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/delivery-notes/internal/pdf"
)

// Domain errors for document operations.
var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicate       = errors.New("document already exists")
	ErrInvalidFile     = errors.New("invalid file")
	ErrNoFiles         = errors.New("no files provided")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrBatchTooLarge   = errors.New("batch exceeds maximum upload size")
	ErrUnsupportedType = errors.New("file is not a PDF")
	ErrReferenced      = errors.New("document is referenced by delivery notes")
)

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrReferenced), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrBatchTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, pdf.ErrCorrupt), errors.Is(err, pdf.ErrEncrypted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidFile), errors.Is(err, ErrNoFiles):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
