// Package rag implements retrieval-augmented question answering: retrieve
// grounding chunks, compose a sourced answer and summarize it into bullets.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/papercomputeco/docent/pkg/embeddings"
	"github.com/papercomputeco/docent/pkg/vector"
)

const (
	// DefaultTopK caps the number of chunks retrieved per query.
	DefaultTopK = 5

	// DefaultThreshold is the minimum cosine similarity of a retrieved chunk.
	DefaultThreshold float32 = 0.3
)

// Retrieval is the ordered set of chunks found for a query, highest
// similarity first. It may be empty.
type Retrieval struct {
	Query   string
	Results []vector.QueryResult
}

// Empty reports whether no chunk cleared the threshold.
func (r *Retrieval) Empty() bool {
	return r == nil || len(r.Results) == 0
}

// Sources returns the distinct source identifiers of the retrieved chunks,
// sorted.
func (r *Retrieval) Sources() []string {
	if r.Empty() {
		return []string{}
	}

	sources := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Source != "" {
			sources = append(sources, res.Source)
		}
	}
	slices.Sort(sources)
	return slices.Compact(sources)
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets the result cap. Values <= 0 select DefaultTopK.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithThreshold sets the similarity floor, clamped to [-1, 1].
func WithThreshold(t float32) RetrieverOption {
	return func(r *Retriever) {
		r.threshold = min(max(t, -1), 1)
	}
}

// WithRetrieverLogger sets the logger.
func WithRetrieverLogger(l *slog.Logger) RetrieverOption {
	return func(r *Retriever) {
		r.logger = l
	}
}

// Retriever embeds queries with the collection's embedder and asks the
// vector store for the nearest chunks.
type Retriever struct {
	embedder  embeddings.Embedder
	driver    vector.Driver
	topK      int
	threshold float32
	logger    *slog.Logger
}

// NewRetriever creates a Retriever over one collection.
func NewRetriever(embedder embeddings.Embedder, driver vector.Driver, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:  embedder,
		driver:    driver,
		topK:      DefaultTopK,
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TopK returns the configured result cap.
func (r *Retriever) TopK() int { return r.topK }

// Threshold returns the configured similarity floor.
func (r *Retriever) Threshold() float32 { return r.threshold }

// Retrieve returns the chunks most similar to query. Finding nothing above
// the threshold is not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) (*Retrieval, error) {
	return r.RetrieveWith(ctx, query, r.topK, r.threshold)
}

// RetrieveWith is Retrieve with a per-call cap and threshold.
func (r *Retriever) RetrieveWith(ctx context.Context, query string, topK int, threshold float32) (*Retrieval, error) {
	if topK <= 0 {
		topK = r.topK
	}
	threshold = min(max(threshold, -1), 1)

	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.driver.Query(ctx, emb, topK, threshold)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}
	if results == nil {
		results = []vector.QueryResult{}
	}

	r.logger.Debug("retrieved chunks",
		"query", query,
		"count", len(results),
		"top_k", topK,
		"threshold", threshold,
	)

	return &Retrieval{Query: query, Results: results}, nil
}
