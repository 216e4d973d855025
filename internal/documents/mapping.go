package documents

import (
	"net/url"

	"github.com/JaimeStill/delivery-notes/pkg/query"
	"github.com/JaimeStill/delivery-notes/pkg/repository"
)

var projection = query.NewProjectionMap("documents", "d").
	Project("id", "Id").
	Project("original_filename", "OriginalFilename").
	Project("content_hash", "ContentHash").
	Project("page_count", "PageCount").
	Project("uploaded_at", "UploadedAt")

var defaultSort = query.SortField{Field: "UploadedAt", Descending: true}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.OriginalFilename,
		&d.ContentHash,
		&d.PageCount,
		&d.UploadedAt,
	)
	return d, err
}

// Filters contains optional criteria for filtering document queries.
type Filters struct {
	Filename    *string
	ContentHash *string
}

// FiltersFromQuery extracts document filters from URL query parameters.
// Both camelCase and snake_case keys are accepted.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := first(values, "filename", "originalFilename", "original_filename"); n != "" {
		f.Filename = &n
	}

	if h := first(values, "fileHash", "file_hash"); h != "" {
		f.ContentHash = &h
	}

	return f
}

// Apply adds filter conditions to the query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("OriginalFilename", f.Filename).
		WhereEquals("ContentHash", f.ContentHash)
}

func first(values url.Values, keys ...string) string {
	for _, k := range keys {
		if v := values.Get(k); v != "" {
			return v
		}
	}
	return ""
}
