package embedding

import (
	"context"
	"hash/fnv"

	"github.com/hyperjump/docrag/pkg/utils"
)

// MockEmbedder is a deterministic embedder for tests. The same text always gets
// the same unit-length embedding.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding seeded by the FNV-1a hash of text.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	state := h.Sum64()

	emb := make([]float32, e.dimensions)
	for i := range emb {
		state = splitmix64(state)
		emb[i] = float32(int64(state>>11)%2000001-1000000) / 1e6
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	z := x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}
