// Package inmemory provides a process-local vector.Driver with exact cosine search.
package inmemory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/papercomputeco/docent/pkg/vector"
)

// Driver implements vector.Driver using an in-memory map.
type Driver struct {
	// mu guards docs and dims; queries take the read lock so concurrent
	// readers never block each other.
	mu sync.RWMutex

	// docs is keyed by chunk ID.
	docs map[string]vector.Document

	// dims is fixed by the first document added.
	dims int
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		docs: make(map[string]vector.Document),
	}
}

// Add stores documents, replacing any with the same ID.
func (d *Driver) Add(_ context.Context, docs []vector.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, doc := range docs {
		if d.dims == 0 {
			d.dims = len(doc.Embedding)
		}
		if len(doc.Embedding) != d.dims {
			return fmt.Errorf("%w: document %s has %d dimensions, collection has %d",
				vector.ErrDimensionMismatch, doc.ID, len(doc.Embedding), d.dims)
		}

		stored := doc
		stored.Embedding = slices.Clone(doc.Embedding)
		stored.Metadata = maps.Clone(doc.Metadata)
		d.docs[doc.ID] = stored
	}

	return nil
}

// Query scans every document and ranks them by cosine similarity.
func (d *Driver) Query(_ context.Context, embedding []float32, topK int, threshold float32) ([]vector.QueryResult, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.dims != 0 && len(embedding) != d.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			vector.ErrDimensionMismatch, len(embedding), d.dims)
	}

	results := make([]vector.QueryResult, 0, len(d.docs))
	for _, doc := range d.docs {
		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    vector.CosineSimilarity(embedding, doc.Embedding),
		})
	}

	return vector.Rank(results, topK, threshold), nil
}

// Get retrieves documents by their IDs, skipping unknown IDs.
func (d *Driver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	docs := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := d.docs[id]; ok {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(_ context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		delete(d.docs, id)
	}

	return nil
}

// DeleteSource removes every document whose Source equals source, except
// the IDs in keep.
func (d *Driver) DeleteSource(_ context.Context, source string, keep ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	maps.DeleteFunc(d.docs, func(id string, doc vector.Document) bool {
		return doc.Source == source && !slices.Contains(keep, id)
	})

	return nil
}

// Len returns the number of stored documents.
func (d *Driver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.docs)
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}
