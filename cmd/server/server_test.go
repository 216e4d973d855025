package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/delivery-notes/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Database.URL = "sqlite://" + filepath.Join(dir, "server.db")
	cfg.Blobs.Dir = filepath.Join(dir, "blobs")
	cfg.Cache.Backend = config.CacheNone
	cfg.Logging.Level = "error"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	t.Cleanup(func() { s.Shutdown(5 * time.Second) })
	return s
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Probes(t *testing.T) {
	s := newTestServer(t)
	h := s.http.http.Handler

	if rec := get(h, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}
	if rec := get(h, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /readyz before start = %d, want 503", rec.Code)
	}

	if err := s.infra.Start(); err != nil {
		t.Fatalf("infra.Start() failed: %v", err)
	}
	if err := s.modules.Start(s.infra.Lifecycle.Context()); err != nil {
		t.Fatalf("modules.Start() failed: %v", err)
	}
	s.infra.Lifecycle.WaitForStartup()

	if rec := get(h, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("GET /readyz after start = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_Routing(t *testing.T) {
	s := newTestServer(t)
	if err := s.infra.Start(); err != nil {
		t.Fatalf("infra.Start() failed: %v", err)
	}
	h := s.http.http.Handler

	tests := []struct {
		path         string
		wantStatus   int
		wantLocation string
	}{
		{"/api/health", http.StatusOK, ""},
		{"/api/documents", http.StatusOK, ""},
		{"/api/documents/", http.StatusMovedPermanently, "/api/documents"},
		{"/api/openapi.json", http.StatusOK, ""},
		{"/metrics", http.StatusOK, ""},
		{"/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(h, tt.path)
			if rec.Code != tt.wantStatus {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}
