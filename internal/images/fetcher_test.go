package images_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"newsreel/internal/images"
	"newsreel/internal/logging"
	"newsreel/internal/testsupport"
)

func TestFetchWritesImage(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Images.BaseURL = server.URL
	cfg.Images.Width = 640
	cfg.Images.Height = 360

	fetcher := images.NewHTTPFetcher(cfg, logging.NewNop())
	path := filepath.Join(t.TempDir(), "background.jpg")
	if err := fetcher.Fetch(context.Background(), "ai,technology", path); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if gotPath != "/random/640x360/" {
		t.Fatalf("unexpected request path: %q", gotPath)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 4 {
		t.Fatalf("unexpected image size: %d", len(data))
	}
}

func TestFetchRejectsEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Images.BaseURL = server.URL

	fetcher := images.NewHTTPFetcher(cfg, logging.NewNop())
	if err := fetcher.Fetch(context.Background(), "ai", filepath.Join(t.TempDir(), "bg.jpg")); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestFetchSurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Images.BaseURL = server.URL

	fetcher := images.NewHTTPFetcher(cfg, logging.NewNop())
	if err := fetcher.Fetch(context.Background(), "ai", filepath.Join(t.TempDir(), "bg.jpg")); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestDeriveQuery(t *testing.T) {
	cases := []struct {
		name       string
		configured string
		topics     []string
		want       string
	}{
		{"configured wins", "ai,technology", []string{"Some Topic"}, "ai,technology"},
		{"derived from first topic", "", []string{"OpenAI Ships New Model Today"}, "openai,ships,new"},
		{"skips blank topics", "", []string{"  ", "Robots Rising"}, "robots,rising"},
		{"fallback", "", nil, "news"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := images.DeriveQuery(tc.configured, tc.topics); got != tc.want {
				t.Fatalf("DeriveQuery = %q, want %q", got, tc.want)
			}
		})
	}
}
