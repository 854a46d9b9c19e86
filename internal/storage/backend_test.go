package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/docrag/internal/models"
)

func openBackends(t *testing.T) map[string]MetadataBackend {
	t.Helper()
	dir := t.TempDir()
	backends := make(map[string]MetadataBackend)
	for kind, name := range map[string]string{BackendJSON: "metadata.json", BackendSQLite: "metadata.db"} {
		b, err := NewMetadataBackend(kind, filepath.Join(dir, "nested", name))
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		t.Cleanup(func() { _ = b.Close() })
		backends[kind] = b
	}
	return backends
}

func TestMetadataBackend_EmptyLoad(t *testing.T) {
	ctx := context.Background()
	for kind, b := range openBackends(t) {
		t.Run(kind, func(t *testing.T) {
			m, err := b.Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(m.Documents) != 0 || m.ChunkCount() != 0 {
				t.Errorf("expected empty metadata, got %d docs %d chunks", len(m.Documents), m.ChunkCount())
			}
		})
	}
}

func TestMetadataBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for kind, b := range openBackends(t) {
		t.Run(kind, func(t *testing.T) {
			m := sampleMetadata()
			m.PutDocument(&models.Document{DocID: "empty", Filename: "blank.pdf", UploadedAt: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), ChunkIDs: []int{}})
			if err := b.Save(ctx, m); err != nil {
				t.Fatal(err)
			}
			got, err := b.Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(got.Documents) != 4 {
				t.Fatalf("got %d documents, want 4", len(got.Documents))
			}
			if got.ChunkCount() != 5 {
				t.Fatalf("got %d chunks, want 5", got.ChunkCount())
			}
			for i, c := range got.Chunks {
				want := m.Chunks[i]
				if c.ChunkID != want.ChunkID || c.DocID != want.DocID || c.Text != want.Text {
					t.Errorf("chunk %d: got %+v, want %+v", i, c, want)
				}
			}
			c, _ := got.GetDocument("docC")
			if c.Filename != "c.pdf" || len(c.ChunkIDs) != 2 || c.ChunkIDs[0] != 3 {
				t.Errorf("docC round-trip: %+v", c)
			}
			if !c.UploadedAt.Equal(m.Documents["docC"].UploadedAt) {
				t.Errorf("uploaded_at: got %v, want %v", c.UploadedAt, m.Documents["docC"].UploadedAt)
			}
			e, _ := got.GetDocument("empty")
			if e == nil || e.ChunkIDs == nil || len(e.ChunkIDs) != 0 {
				t.Errorf("empty document should load with empty chunk list: %+v", e)
			}
		})
	}
}

func TestMetadataBackend_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	for kind, b := range openBackends(t) {
		t.Run(kind, func(t *testing.T) {
			m := sampleMetadata()
			if err := b.Save(ctx, m); err != nil {
				t.Fatal(err)
			}
			m.RemoveDocument("docA")
			m.RemoveDocumentChunks("docA")
			m.Renumber()
			if err := b.Save(ctx, m); err != nil {
				t.Fatal(err)
			}
			got, err := b.Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := got.GetDocument("docA"); ok {
				t.Error("docA should be gone")
			}
			if got.ChunkCount() != 3 {
				t.Errorf("got %d chunks, want 3", got.ChunkCount())
			}
		})
	}
}

func TestJSONFileBackend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONFileBackend(path).Load(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestNewMetadataBackend_Unknown(t *testing.T) {
	if _, err := NewMetadataBackend("redis", "x"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestMetadataBackend_Location(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.json")
	if got := NewJSONFileBackend(path).Location(); got != path {
		t.Errorf("Location=%s, want %s", got, path)
	}
}
