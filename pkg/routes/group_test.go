package routes_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/delivery-notes/pkg/openapi"
	"github.com/JaimeStill/delivery-notes/pkg/routes"
)

func write(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}
}

func testGroups() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Tags:   []string{"Documents"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: write("list"), OpenAPI: &openapi.Operation{Summary: "List"}},
			{Method: "GET", Pattern: "/{id}", Handler: write("get"), OpenAPI: &openapi.Operation{Summary: "Get", Tags: []string{"Custom"}}},
			{Method: "DELETE", Pattern: "/{id}", Handler: write("delete")},
		},
		Children: []routes.Group{
			{
				Prefix: "/{id}/pages",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: write("pages"), OpenAPI: &openapi.Operation{Summary: "Pages"}},
				},
			},
		},
		Schemas: map[string]*openapi.Schema{
			"Document": {Type: "object"},
		},
	}
}

func TestRegister_Mux(t *testing.T) {
	mux := http.NewServeMux()
	spec := openapi.NewSpec("t", "1")
	routes.Register(mux, "/api", spec, testGroups())

	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"GET", "/documents", "list"},
		{"GET", "/documents/abc", "get"},
		{"DELETE", "/documents/abc", "delete"},
		{"GET", "/documents/abc/pages", "pages"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestRegister_Spec(t *testing.T) {
	spec := openapi.NewSpec("t", "1")
	routes.Register(http.NewServeMux(), "/api", spec, testGroups())

	list := spec.Paths["/api/documents"]
	if list == nil || list.Get == nil {
		t.Fatal("GET /api/documents not documented")
	}
	if len(list.Get.Tags) != 1 || list.Get.Tags[0] != "Documents" {
		t.Errorf("inherited tags = %v, want [Documents]", list.Get.Tags)
	}

	item := spec.Paths["/api/documents/{id}"]
	if item == nil || item.Get == nil {
		t.Fatal("GET /api/documents/{id} not documented")
	}
	if item.Get.Tags[0] != "Custom" {
		t.Errorf("explicit tags overwritten: %v", item.Get.Tags)
	}
	if item.Delete != nil {
		t.Error("undocumented DELETE route added to spec")
	}

	if spec.Paths["/api/documents/{id}/pages"] == nil {
		t.Error("child group route not documented")
	}
	if _, ok := spec.Components.Schemas["Document"]; !ok {
		t.Error("group schema not registered")
	}
}
