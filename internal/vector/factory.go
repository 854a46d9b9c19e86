package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeFlat is exact brute-force search over all vectors.
	IndexTypeFlat IndexType = "flat"
)

// NewVectorIndex creates a vector index of the specified type.
// "flat" is the only supported type; "" and "memory" are accepted as aliases.
func NewVectorIndex(indexType string, dimensions int) (VectorIndex, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "", "memory":
		return NewFlatIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: flat)", indexType)
	}
}
