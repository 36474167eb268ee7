package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExistsNonEmpty(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.mp3")
	if ExistsNonEmpty(missing) {
		t.Fatal("expected missing file to report false")
	}

	empty := filepath.Join(dir, "empty.mp3")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if ExistsNonEmpty(empty) {
		t.Fatal("expected empty file to report false")
	}

	full := filepath.Join(dir, "full.mp3")
	if err := os.WriteFile(full, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !ExistsNonEmpty(full) {
		t.Fatal("expected non-empty file to report true")
	}

	if ExistsNonEmpty(dir) {
		t.Fatal("expected directory to report false")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	content := []byte("hello world")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}
