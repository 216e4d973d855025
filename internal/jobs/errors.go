package jobs

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/delivery-notes/internal/documents"
	"github.com/JaimeStill/delivery-notes/internal/extractor"
)

var (
	ErrNotFound  = errors.New("job not found")
	ErrCancelled = errors.New("cancelled")
	ErrTimeout   = errors.New("timeout")
)

// MapHTTPStatus converts job errors to HTTP status codes. Upload errors are
// delegated to the documents mapping.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, extractor.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return documents.MapHTTPStatus(err)
	}
}
