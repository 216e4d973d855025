package allocations

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrPagesAllocated   = errors.New("pages already allocated")
	ErrDocumentNotFound = errors.New("document not found")
	ErrPageOutOfRange   = errors.New("page out of range")
	ErrEmptyClaim       = errors.New("claim has no pages")
)

// ConflictError lists the pages that could not be claimed.
type ConflictError struct {
	Pages []int
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Pages))
	for i, p := range e.Pages {
		parts[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("%s: %s", ErrPagesAllocated, strings.Join(parts, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrPagesAllocated
}
