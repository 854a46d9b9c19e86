// Package embedding turns text into dense vectors using a remote embedding model.
package embedding

import "context"

// Embedder produces vector embeddings for text. Every vector it returns has
// length Dimensions().
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
