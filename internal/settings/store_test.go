package settings_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newsreel/internal/logging"
	"newsreel/internal/settings"
)

func TestOpenSeedsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	store, err := settings.Open(path, []string{" A ", "", "B"}, logging.NewNop())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	got := store.Topics()
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("unexpected seeded topics: %v", got)
	}

	// Seeding must not create the file; only an explicit save persists.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected topics file to remain absent until first save")
	}
}

func TestReplacePersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topics.json")

	store, err := settings.Open(path, nil, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Replace([]string{"Topic A", "Topic B"}); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}

	reloaded, err := settings.Open(path, []string{"ignored default"}, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	got := reloaded.Topics()
	if len(got) != 2 || got[0] != "Topic A" || got[1] != "Topic B" {
		t.Fatalf("unexpected reloaded topics: %v", got)
	}
}

func TestReplaceIsWholeListSwap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	store, err := settings.Open(path, []string{"old one", "old two"}, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Replace([]string{"only new"}); err != nil {
		t.Fatal(err)
	}
	got := store.Topics()
	if len(got) != 1 || got[0] != "only new" {
		t.Fatalf("expected full replacement, got %v", got)
	}
}

func TestTopicsReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	store, err := settings.Open(path, []string{"A"}, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	list := store.Topics()
	list[0] = "mutated"
	if store.Topics()[0] != "A" {
		t.Fatal("expected Topics to return a copy")
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := settings.Open(path, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for corrupt topics file")
	}
}

func TestPersistedDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.json")
	store, err := settings.Open(path, nil, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Replace([]string{"One"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"topics"`) {
		t.Fatalf("unexpected document: %s", data)
	}
}
