// Package vector provides the vector store contract and its implementations.
package vector

import "context"

// MetadataSource is the metadata key carrying the originating document
// identifier. Every stored chunk has it.
const MetadataSource = "source"

// Document is one stored chunk of a source document with its embedding.
type Document struct {
	// ID is a deterministic identifier for the chunk, stable across re-ingestion
	// of identical content.
	ID string

	// Text is the chunk text.
	Text string

	// Source identifies the originating document (a file name or path).
	Source string

	// Position is the zero-based order of the chunk within its source.
	Position int

	// Metadata carries any extra string attributes of the chunk.
	Metadata map[string]string

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score is the cosine similarity to the query embedding (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of chunk embeddings for a single
// collection. All members of a collection share one embedding dimensionality.
type Driver interface {
	// Add stores documents with their embeddings.
	// If a document with the same ID already exists, it is replaced.
	Add(ctx context.Context, docs []Document) error

	// Query returns at most topK documents whose similarity to embedding is at
	// least threshold, ordered by descending similarity. An empty result is
	// not an error.
	Query(ctx context.Context, embedding []float32, topK int, threshold float32) ([]QueryResult, error)

	// Get retrieves documents by their IDs.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// DeleteSource removes every document originating from source except
	// those whose IDs are listed in keep.
	DeleteSource(ctx context.Context, source string, keep ...string) error

	// Close releases any resources held by the driver.
	Close() error
}
