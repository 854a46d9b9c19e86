package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/hyperjump/docrag/internal/models"
	"github.com/hyperjump/docrag/pkg/utils"
)

// FlatIndex is an in-memory vector index using brute-force squared L2 search.
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
	mu         sync.RWMutex
}

// NewFlatIndex creates a flat vector index with the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{
		dimensions: dimensions,
		vectors:    make([][]float32, 0),
	}, nil
}

// Type returns the index type identifier.
func (f *FlatIndex) Type() string {
	return string(IndexTypeFlat)
}

// Dimensions returns the configured vector dimension.
func (f *FlatIndex) Dimensions() int {
	return f.dimensions
}

// Add appends vectors in order. All vectors are validated before any is stored.
func (f *FlatIndex) Add(ctx context.Context, vectors [][]float32) error {
	staged, err := f.copyValidated(vectors)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = append(f.vectors, staged...)
	return nil
}

// Rebuild replaces the index contents with vectors. On validation failure the
// index is unchanged.
func (f *FlatIndex) Rebuild(ctx context.Context, vectors [][]float32) error {
	staged, err := f.copyValidated(vectors)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = staged
	return nil
}

func (f *FlatIndex) copyValidated(vectors [][]float32) ([][]float32, error) {
	staged := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != f.dimensions {
			return nil, fmt.Errorf("vector %d: got %d, expected %d: %w", i, len(v), f.dimensions, models.ErrDimensionMismatch)
		}
		vec := make([]float32, f.dimensions)
		copy(vec, v)
		staged[i] = vec
	}
	return staged, nil
}

// Search returns the k nearest vectors by squared L2 distance, ascending.
// Equal distances are ordered by lower position. k is clamped to the index size.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("query: got %d, expected %d: %w", len(query), f.dimensions, models.ErrDimensionMismatch)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || len(f.vectors) == 0 {
		return []Neighbor{}, nil
	}
	scored := make([]Neighbor, len(f.vectors))
	for i, vec := range f.vectors {
		scored[i] = Neighbor{Position: i, Distance: SquaredL2(query, vec)}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].Position < scored[j].Position
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Vectors returns a copy of all vectors in position order.
func (f *FlatIndex) Vectors() [][]float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([][]float32, len(f.vectors))
	for i, v := range f.vectors {
		out[i] = append([]float32(nil), v...)
	}
	return out
}

// indexHeaderSize is the dimension and count prefix of an index file.
const indexHeaderSize = 8

// Save persists the index to path through a temp file and rename.
// Format: dimension (u32), n (u32), then n*dimension little-endian float32.
func (f *FlatIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return utils.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		if err := binary.Write(w, binary.LittleEndian, uint32(f.dimensions)); err != nil {
			return fmt.Errorf("write dimensions: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(f.vectors))); err != nil {
			return fmt.Errorf("write count: %w", err)
		}
		for _, vec := range f.vectors {
			if _, err := w.Write(float32SliceToBytes(vec)); err != nil {
				return fmt.Errorf("write vector: %w", err)
			}
		}
		return nil
	})
}

// Load reads the index from path and replaces the in-memory contents. Dimensions must match.
// If the file does not exist, no error is returned and the index is unchanged.
func (f *FlatIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()
	r := bufio.NewReader(file)

	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != f.dimensions {
		return fmt.Errorf("file has %d, index expects %d: %w", dim, f.dimensions, models.ErrDimensionMismatch)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat index file: %w", err)
	}
	if want := indexHeaderSize + int64(n)*int64(dim)*4; info.Size() != want {
		return fmt.Errorf("index file is %d bytes, header describes %d vectors (%d bytes)", info.Size(), n, want)
	}
	vectors := make([][]float32, 0, n)
	buf := make([]byte, f.dimensions*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = vectors
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Size returns the number of vectors in the index.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Close is a no-op for FlatIndex.
func (f *FlatIndex) Close() error {
	return nil
}
