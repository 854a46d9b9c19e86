package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/hyperjump/docrag/internal/extract"
	"github.com/hyperjump/docrag/internal/models"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestIngestFile(t *testing.T) {
	env := newTestEngine(t, 3, 1, Config{})
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"leave.txt": "one two three four five"})

	res, err := env.engine.IngestFile(context.Background(), extract.NewExtractor(), filepath.Join(dir, "leave.txt"), "leave")
	if err != nil {
		t.Fatal(err)
	}
	if res.DocID != "leave" || res.ChunkCount != 3 {
		t.Errorf("unexpected result: %+v", res)
	}
	doc, err := env.engine.GetDocument("leave")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Filename != "leave.txt" {
		t.Errorf("filename: got %q", doc.Filename)
	}
}

func TestIngestFile_rejects(t *testing.T) {
	env := newTestEngine(t, 3, 1, Config{})
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"data.bin": "x"})
	ex := extract.NewExtractor()

	if _, err := env.engine.IngestFile(context.Background(), ex, filepath.Join(dir, "data.bin"), ""); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("unsupported extension: expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.engine.IngestFile(context.Background(), ex, dir, ""); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("directory: expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.engine.IngestFile(context.Background(), ex, filepath.Join(dir, "missing.txt"), ""); err == nil {
		t.Error("missing file should fail")
	}
	if env.engine.Size() != 0 {
		t.Errorf("index should be empty, size %d", env.engine.Size())
	}
}

func TestIngestDirectory(t *testing.T) {
	env := newTestEngine(t, 3, 1, Config{})
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt":             "alpha beta",
		"notes/b.md":        "gamma delta epsilon",
		"notes/skip.bin":    "ignored",
		".git/config.txt":   "hidden",
		"notes/.cache/c.md": "hidden too",
	})

	results, err := env.engine.IngestDirectory(context.Background(), extract.NewExtractor(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("ingested %d files, want 2", len(results))
	}
	var names []string
	for _, doc := range env.engine.ListDocuments(context.Background()) {
		names = append(names, doc.Filename)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.md" {
		t.Errorf("indexed files: %v", names)
	}
}

func TestIngestDirectory_stopsAtFirstError(t *testing.T) {
	env := newTestEngine(t, 3, 1, Config{})
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	env.embedder.FailAfter(0)

	results, err := env.engine.IngestDirectory(context.Background(), extract.NewExtractor(), dir)
	if !errors.Is(err, models.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
	if len(results) != 0 || env.engine.Size() != 0 {
		t.Errorf("nothing should be indexed: results %d, size %d", len(results), env.engine.Size())
	}
}

func TestIngestDirectory_notADirectory(t *testing.T) {
	env := newTestEngine(t, 3, 1, Config{})
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "alpha"})
	if _, err := env.engine.IngestDirectory(context.Background(), extract.NewExtractor(), filepath.Join(dir, "a.txt")); err == nil {
		t.Error("expected an error for a file path")
	}
}
