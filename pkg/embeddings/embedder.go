// Package embeddings defines the embedding service used at ingestion and
// query time.
package embeddings

import "context"

// Embedder provides text embedding capabilities. Identical input under an
// identical model configuration yields an identical vector.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
