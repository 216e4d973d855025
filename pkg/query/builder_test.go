package query_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/delivery-notes/pkg/query"
)

func newTestProjection() *query.ProjectionMap {
	return query.NewProjectionMap("documents", "d").
		Project("id", "Id").
		Project("original_filename", "OriginalFilename").
		Project("content_hash", "ContentHash").
		Project("uploaded_at", "UploadedAt")
}

func TestProjectionMap(t *testing.T) {
	pm := newTestProjection()

	if got := pm.Table(); got != "documents d" {
		t.Errorf("Table() = %q, want %q", got, "documents d")
	}
	if got := pm.Columns(); got != "d.id, d.original_filename, d.content_hash, d.uploaded_at" {
		t.Errorf("Columns() = %q", got)
	}
	if got := pm.Column("ContentHash"); got != "d.content_hash" {
		t.Errorf("Column(ContentHash) = %q", got)
	}
	if got := pm.Column("Missing"); got != "" {
		t.Errorf("Column(Missing) = %q, want empty", got)
	}
}

func TestBuilder_BuildCount_NoConditions(t *testing.T) {
	b := query.NewBuilder(newTestProjection())

	sql, args := b.BuildCount()

	if want := "SELECT COUNT(*) FROM documents d"; sql != want {
		t.Errorf("BuildCount() sql = %q, want %q", sql, want)
	}
	if len(args) != 0 {
		t.Errorf("BuildCount() args = %v, want empty", args)
	}
}

func TestBuilder_BuildPage_DefaultSort(t *testing.T) {
	b := query.NewBuilder(newTestProjection(), query.SortField{Field: "UploadedAt", Descending: true})

	sql, _ := b.BuildPage(1, 20)

	if !strings.Contains(sql, "ORDER BY d.uploaded_at DESC") {
		t.Errorf("BuildPage() missing default order, got %q", sql)
	}
	if !strings.HasSuffix(sql, "LIMIT 20 OFFSET 0") {
		t.Errorf("BuildPage() missing limit/offset, got %q", sql)
	}
}

func TestBuilder_BuildPage_Pagination(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		pageSize int
		want     string
	}{
		{"first page", 1, 20, "LIMIT 20 OFFSET 0"},
		{"second page", 2, 20, "LIMIT 20 OFFSET 20"},
		{"third page", 3, 10, "LIMIT 10 OFFSET 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _ := query.NewBuilder(newTestProjection()).BuildPage(tt.page, tt.pageSize)
			if !strings.HasSuffix(sql, tt.want) {
				t.Errorf("BuildPage(%d, %d) = %q, want suffix %q", tt.page, tt.pageSize, sql, tt.want)
			}
		})
	}
}

func TestBuilder_Conditions(t *testing.T) {
	name := "Scan"
	search := "ACME"
	var nilString *string

	b := query.NewBuilder(newTestProjection()).
		WhereEquals("ContentHash", "abc").
		WhereEquals("Id", nil).
		WhereEquals("Id", nilString).
		WhereEquals("Unknown", "x").
		WhereContains("OriginalFilename", &name).
		WhereSearch(&search, "OriginalFilename", "ContentHash")

	sql, args := b.Build()

	wantWhere := " WHERE d.content_hash = $1 AND LOWER(d.original_filename) LIKE $2" +
		" AND (LOWER(d.original_filename) LIKE $3 OR LOWER(d.content_hash) LIKE $4)"
	if !strings.Contains(sql, wantWhere) {
		t.Errorf("Build() sql = %q, want where %q", sql, wantWhere)
	}

	wantArgs := []any{"abc", "%scan%", "%acme%", "%acme%"}
	if !slices.Equal(args, wantArgs) {
		t.Errorf("Build() args = %v, want %v", args, wantArgs)
	}

	countSQL, countArgs := b.BuildCount()
	if !strings.Contains(countSQL, wantWhere) || len(countArgs) != 4 {
		t.Errorf("BuildCount() = %q %v", countSQL, countArgs)
	}
}

func TestBuilder_OrderByFields(t *testing.T) {
	b := query.NewBuilder(newTestProjection(), query.SortField{Field: "UploadedAt"}).
		OrderByFields([]query.SortField{
			{Field: "OriginalFilename"},
			{Field: "Bogus"},
			{Field: "UploadedAt", Descending: true},
		})

	sql, _ := b.Build()
	if !strings.HasSuffix(sql, " ORDER BY d.original_filename ASC, d.uploaded_at DESC") {
		t.Errorf("Build() = %q", sql)
	}
}

func TestBuilder_BuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(newTestProjection()).BuildSingle("Id", "42")

	want := "SELECT d.id, d.original_filename, d.content_hash, d.uploaded_at FROM documents d WHERE d.id = $1"
	if sql != want {
		t.Errorf("BuildSingle() = %q, want %q", sql, want)
	}
	if len(args) != 1 || args[0] != "42" {
		t.Errorf("BuildSingle() args = %v", args)
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		in   string
		want []query.SortField
	}{
		{"", nil},
		{"name", []query.SortField{{Field: "name"}}},
		{"-createdAt", []query.SortField{{Field: "createdAt", Descending: true}}},
		{"name, -createdAt,,", []query.SortField{{Field: "name"}, {Field: "createdAt", Descending: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := query.ParseSortFields(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
