// Package vector provides vector index and nearest-neighbor search.
package vector

import "context"

// VectorIndex is an ordered store of fixed-dimension vectors. The vector at
// position i belongs to the chunk whose chunk_id is i.
type VectorIndex interface {
	// Add appends vectors in order. Nothing is appended if any vector has the wrong dimension.
	Add(ctx context.Context, vectors [][]float32) error
	// Search returns up to k nearest positions by squared L2 distance, closest first.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)
	// Rebuild replaces all contents in one step.
	Rebuild(ctx context.Context, vectors [][]float32) error
	// Vectors returns a copy of all stored vectors in position order.
	Vectors() [][]float32
	Save(path string) error
	Load(path string) error
	Size() int
	Dimensions() int
	Type() string
	Close() error
}

// Neighbor is a single search hit.
type Neighbor struct {
	Position int
	Distance float64 // squared L2; lower is closer
}
