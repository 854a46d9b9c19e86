package vector

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/docrag/internal/models"
)

func TestFlatIndex_AddSearch(t *testing.T) {
	idx, err := NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	if err := idx.Add(ctx, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Position != 0 || results[0].Distance != 0 {
		t.Errorf("top result should be position 0 at distance 0, got %+v", results[0])
	}
	if results[1].Position != 1 {
		t.Errorf("second result should be position 1, got %d", results[1].Position)
	}
	if results[0].Distance > results[1].Distance {
		t.Error("results should be in ascending distance order")
	}
}

func TestFlatIndex_SearchTieBreakByPosition(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, [][]float32{{0, 1}, {1, 0}, {0, 1}, {1, 0}})

	results, err := idx.Search(ctx, []float32{1, 0}, 4)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 3, 0, 2}
	for i, r := range results {
		if r.Position != want[i] {
			t.Errorf("result %d: position %d, want %d", i, r.Position, want[i])
		}
	}
}

func TestFlatIndex_SearchClampAndEmpty(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()

	results, err := idx.Search(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("empty index: got %d results", len(results))
	}

	_ = idx.Add(ctx, [][]float32{{1, 0}, {0, 1}})
	results, _ = idx.Search(ctx, []float32{1, 0}, 10)
	if len(results) != 2 {
		t.Errorf("k should clamp to size 2, got %d", len(results))
	}
	results, _ = idx.Search(ctx, []float32{1, 0}, 0)
	if len(results) != 0 {
		t.Errorf("k=0: got %d results", len(results))
	}
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewFlatIndex(3)
	ctx := context.Background()

	err := idx.Add(ctx, [][]float32{{1, 0, 0}, {1, 0}})
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("failed add must not append, size=%d", idx.Size())
	}

	if _, err := idx.Search(ctx, []float32{1}, 1); !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("search: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFlatIndex_Rebuild(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, [][]float32{{1, 0}, {0, 1}, {1, 1}})

	if err := idx.Rebuild(ctx, [][]float32{{5, 5}}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Fatalf("expected size 1 after rebuild, got %d", idx.Size())
	}
	if v := idx.Vectors()[0]; v[0] != 5 || v[1] != 5 {
		t.Errorf("unexpected vector after rebuild: %v", v)
	}

	err := idx.Rebuild(ctx, [][]float32{{1, 1}, {1}})
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if idx.Size() != 1 {
		t.Errorf("failed rebuild must leave index unchanged, size=%d", idx.Size())
	}

	if err := idx.Rebuild(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 0 {
		t.Errorf("rebuild with no vectors should empty the index, size=%d", idx.Size())
	}
}

func TestFlatIndex_VectorsIsCopy(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	src := [][]float32{{1, 2}}
	_ = idx.Add(context.Background(), src)
	src[0][0] = 99

	out := idx.Vectors()
	if out[0][0] != 1 {
		t.Error("Add should copy input vectors")
	}
	out[0][1] = 42
	if idx.Vectors()[0][1] != 2 {
		t.Error("Vectors should return copies")
	}
}

func TestFlatIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings", "index.vec")
	idx, _ := NewFlatIndex(3)
	ctx := context.Background()
	vecs := [][]float32{{0.1, 0.2, 0.3}, {-1.5, 2.25, 1e-7}}
	_ = idx.Add(ctx, vecs)

	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, _ := NewFlatIndex(3)
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("loaded size=%d, want 2", loaded.Size())
	}
	for i, v := range loaded.Vectors() {
		for j := range v {
			if v[j] != vecs[i][j] {
				t.Errorf("vector %d[%d] = %v, want %v", i, j, v[j], vecs[i][j])
			}
		}
	}

	wrongDim, _ := NewFlatIndex(4)
	if err := wrongDim.Load(path); !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestFlatIndex_LoadMissingFile(t *testing.T) {
	idx, _ := NewFlatIndex(2)
	if err := idx.Load(filepath.Join(t.TempDir(), "missing.vec")); err != nil {
		t.Errorf("missing file should be a no-op, got %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("size=%d", idx.Size())
	}
}

func TestFlatIndex_LoadTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.vec")
	idx, _ := NewFlatIndex(2)
	_ = idx.Add(context.Background(), [][]float32{{1, 2}, {3, 4}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if err := os.WriteFile(path, data[:len(data)-3], 0644); err != nil {
		t.Fatal(err)
	}
	loaded, _ := NewFlatIndex(2)
	if err := loaded.Load(path); err == nil {
		t.Error("expected error for truncated file")
	}
	if loaded.Size() != 0 {
		t.Error("failed load must not replace contents")
	}
}

func TestFlatIndex_LoadRejectsCorruptHeader(t *testing.T) {
	tests := []struct {
		name    string
		count   uint32
		payload int
	}{
		{"huge count", 0xFFFFFFFF, 8},
		{"count larger than payload", 3, 16},
		{"trailing bytes", 1, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "index.vec")
			data := make([]byte, 8+tt.payload)
			binary.LittleEndian.PutUint32(data[0:4], 2)
			binary.LittleEndian.PutUint32(data[4:8], tt.count)
			if err := os.WriteFile(path, data, 0644); err != nil {
				t.Fatal(err)
			}
			idx, _ := NewFlatIndex(2)
			_ = idx.Add(context.Background(), [][]float32{{1, 1}})
			if err := idx.Load(path); err == nil {
				t.Fatal("expected an error")
			}
			if idx.Size() != 1 {
				t.Errorf("failed load replaced contents: size=%d", idx.Size())
			}
		})
	}
}
