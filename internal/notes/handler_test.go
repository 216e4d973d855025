package notes_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/internal/notes"
	"github.com/JaimeStill/delivery-notes/pkg/openapi"
	"github.com/JaimeStill/delivery-notes/pkg/routes"
)

func newMux(t *testing.T, f fixture) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	h := notes.NewHandler(f.notes, slog.New(slog.NewTextHandler(io.Discard, nil)))
	routes.Register(mux, "/api", openapi.NewSpec("test", "0"), h.Routes())
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Lifecycle(t *testing.T) {
	f := setup(t)
	mux := newMux(t, f)
	doc := f.upload(t, 3)

	rec := do(mux, "POST", "/delivery-notes",
		`{"documentId":"`+doc.ID.String()+`","displayName":"A","companyName":"Acme","pageNumbers":[1,2]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body)
	}

	var created notes.CreateResult
	json.NewDecoder(rec.Body).Decode(&created)
	if created.Status != "created" || created.ID == uuid.Nil {
		t.Fatalf("POST body = %+v", created)
	}
	path := "/delivery-notes/" + created.ID.String()

	rec = do(mux, "POST", "/delivery-notes",
		`{"documentId":"`+doc.ID.String()+`","displayName":"B","companyName":"Acme","pageNumbers":[2,3]}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("overlapping POST status = %d, want 409", rec.Code)
	}

	rec = do(mux, "PATCH", path, `{"pageNumbers":[3]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("PATCH pageNumbers status = %d, want 400", rec.Code)
	}

	rec = do(mux, "PATCH", path, `{"deliveryNoteNumber":"DN-9"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d, body %s", rec.Code, rec.Body)
	}
	var patched notes.Note
	json.NewDecoder(rec.Body).Decode(&patched)
	if patched.DeliveryNoteNumber == nil || *patched.DeliveryNoteNumber != "DN-9" {
		t.Errorf("PATCH deliveryNoteNumber = %v", patched.DeliveryNoteNumber)
	}

	rec = do(mux, "GET", "/delivery-notes?document_id="+doc.ID.String(), "")
	var list []notes.Note
	json.NewDecoder(rec.Body).Decode(&list)
	if rec.Code != http.StatusOK || len(list) != 1 {
		t.Errorf("GET list status = %d, len = %d", rec.Code, len(list))
	}

	rec = do(mux, "DELETE", path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	var deleted notes.DeleteResult
	json.NewDecoder(rec.Body).Decode(&deleted)
	if !deleted.Success || len(deleted.FreedPages) != 2 {
		t.Errorf("DELETE body = %+v", deleted)
	}

	if rec = do(mux, "GET", path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", rec.Code)
	}
}

func TestHandler_Download(t *testing.T) {
	f := setup(t)
	mux := newMux(t, f)
	doc := f.upload(t, 2)

	rec := do(mux, "POST", "/delivery-notes",
		`{"documentId":"`+doc.ID.String()+`","displayName":"DN 7","companyName":"Acme","pageNumbers":[2]}`)
	var created notes.CreateResult
	json.NewDecoder(rec.Body).Decode(&created)

	tests := []struct {
		suffix      string
		disposition string
	}{
		{"/download", "attachment"},
		{"/preview", "inline"},
	}

	for _, tt := range tests {
		t.Run(tt.disposition, func(t *testing.T) {
			rec := do(mux, "GET", "/delivery-notes/"+created.ID.String()+tt.suffix, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
				t.Errorf("Content-Type = %q", ct)
			}

			disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
			if err != nil {
				t.Fatalf("Content-Disposition: %v", err)
			}
			if disposition != tt.disposition || params["filename"] != "DN 7.pdf" {
				t.Errorf("Content-Disposition = %s %v", disposition, params)
			}
			if !strings.HasPrefix(rec.Body.String(), "%PDF-") {
				t.Error("body is not a PDF")
			}
		})
	}
}

func TestHandler_Errors(t *testing.T) {
	f := setup(t)
	mux := newMux(t, f)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"invalid id", "GET", "/delivery-notes/not-a-uuid", "", 404},
		{"unknown id", "GET", "/delivery-notes/" + uuid.NewString(), "", 404},
		{"unknown download", "GET", "/delivery-notes/" + uuid.NewString() + "/download", "", 404},
		{"bad filter", "GET", "/delivery-notes?document_id=nope", "", 400},
		{"malformed body", "POST", "/delivery-notes", "{", 400},
		{"unknown document", "POST", "/delivery-notes",
			`{"documentId":"` + uuid.NewString() + `","displayName":"A","companyName":"Acme","pageNumbers":[1]}`, 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(mux, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}

			var body struct {
				Detail string `json:"detail"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Detail == "" {
				t.Errorf("error envelope missing detail: %v", err)
			}
		})
	}
}
