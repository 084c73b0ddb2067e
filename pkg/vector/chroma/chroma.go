// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/papercomputeco/docent/pkg/vector"
)

const (
	// DefaultCollectionName matches the collection the original toolbox used.
	DefaultCollectionName = "my_rag_docs"

	defaultMaxRetries    = 5
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 5 * time.Second

	collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// Driver implements vector.Driver using Chroma's REST API. The collection is
// created with cosine space so distances convert directly to similarity.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// MaxRetries is how many times connecting is attempted before giving up.
	MaxRetries int

	// RetryDelay is the initial backoff between attempts. It doubles after
	// every failure up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewDriver creates a new Chroma vector driver, retrying with exponential
// backoff while the server comes up.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxRetryDelay
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		collectionID, err := d.getOrCreateCollection(context.Background())
		if err == nil {
			d.collectionID = collectionID
			logger.Info("connected to chroma",
				"url", c.URL,
				"collection", collectionName,
				"collection_id", collectionID,
			)
			return d, nil
		}

		lastErr = err
		if attempt == maxRetries {
			break
		}

		logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		time.Sleep(delay)
		delay = min(delay*2, maxDelay)
	}

	return nil, fmt.Errorf("%w: collection %q after %d attempts: %w",
		vector.ErrConnection, collectionName, maxRetries, lastErr)
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s%s/%s", d.baseURL, collectionsPath, d.collectionName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	// Collection doesn't exist, create it
	var collection chromaCollection
	err = d.post(ctx, d.baseURL+collectionsPath, chromaCreateRequest{
		Name:     d.collectionName,
		Metadata: map[string]any{"hnsw:space": "cosine"},
	}, &collection)
	if err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}

	return collection.ID, nil
}

func (d *Driver) collectionURL(op string) string {
	return fmt.Sprintf("%s%s/%s/%s", d.baseURL, collectionsPath, d.collectionID, op)
}

// post sends body as JSON and decodes the response into out when non-nil.
func (d *Driver) post(ctx context.Context, url string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// Add upserts documents with their embeddings.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	reqBody := chromaUpsertRequest{
		IDs:        make([]string, len(docs)),
		Embeddings: make([][]float32, len(docs)),
		Metadatas:  make([]map[string]any, len(docs)),
		Documents:  make([]string, len(docs)),
	}

	for i, doc := range docs {
		reqBody.IDs[i] = doc.ID
		reqBody.Embeddings[i] = doc.Embedding
		reqBody.Documents[i] = doc.Text
		reqBody.Metadatas[i] = toMetadata(doc)
	}

	if err := d.post(ctx, d.collectionURL("upsert"), reqBody, nil); err != nil {
		return fmt.Errorf("upserting documents: %w", err)
	}

	d.logger.Debug("upserted documents to chroma", "count", len(docs))

	return nil
}

// Query asks Chroma for the topK nearest neighbours and ranks them against
// threshold.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, threshold float32) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Include:         []string{"documents", "metadatas", "distances"},
	}

	var queryResp chromaQueryResponse
	if err := d.post(ctx, d.collectionURL("query"), reqBody, &queryResp); err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}

	// Process first group, we only query with one embedding
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return []vector.QueryResult{}, nil
	}

	ids := queryResp.IDs[0]
	var distances []float32
	if len(queryResp.Distances) > 0 {
		distances = queryResp.Distances[0]
	}
	var metadatas []map[string]any
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}
	var texts []*string
	if len(queryResp.Documents) > 0 {
		texts = queryResp.Documents[0]
	}

	results := make([]vector.QueryResult, 0, len(ids))
	for i, id := range ids {
		doc := vector.Document{ID: id}
		if i < len(metadatas) {
			fromMetadata(&doc, metadatas[i])
		}
		if i < len(texts) && texts[i] != nil {
			doc.Text = *texts[i]
		}

		result := vector.QueryResult{Document: doc}
		if i < len(distances) {
			result.Score = vector.DistanceToSimilarity(distances[i])
		}
		results = append(results, result)
	}

	ranked := vector.Rank(results, topK, threshold)
	d.logger.Debug("queried chroma", "candidates", len(results), "results", len(ranked))

	return ranked, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var getResp chromaGetResponse
	err := d.post(ctx, d.collectionURL("get"), chromaGetRequest{
		IDs:     ids,
		Include: []string{"documents", "metadatas", "embeddings"},
	}, &getResp)
	if err != nil {
		return nil, fmt.Errorf("getting documents: %w", err)
	}

	docs := make([]vector.Document, len(getResp.IDs))
	for i, id := range getResp.IDs {
		docs[i].ID = id
		if i < len(getResp.Metadatas) {
			fromMetadata(&docs[i], getResp.Metadatas[i])
		}
		if i < len(getResp.Documents) && getResp.Documents[i] != nil {
			docs[i].Text = *getResp.Documents[i]
		}
		if i < len(getResp.Embeddings) {
			docs[i].Embedding = getResp.Embeddings[i]
		}
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := d.post(ctx, d.collectionURL("delete"), chromaDeleteRequest{IDs: ids}, nil); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	d.logger.Debug("deleted documents from chroma", "count", len(ids))

	return nil
}

// DeleteSource removes every document whose source metadata equals source.
// Chroma filters cannot exclude IDs, so with keep set the source's IDs are
// listed first and only the others are deleted.
func (d *Driver) DeleteSource(ctx context.Context, source string, keep ...string) error {
	where := map[string]any{vector.MetadataSource: source}

	if len(keep) == 0 {
		if err := d.post(ctx, d.collectionURL("delete"), chromaDeleteRequest{Where: where}, nil); err != nil {
			return fmt.Errorf("deleting source %q: %w", source, err)
		}
		return nil
	}

	var getResp chromaGetResponse
	if err := d.post(ctx, d.collectionURL("get"), chromaGetRequest{
		Where:   where,
		Include: []string{"metadatas"},
	}, &getResp); err != nil {
		return fmt.Errorf("listing source %q: %w", source, err)
	}

	stale := slices.DeleteFunc(getResp.IDs, func(id string) bool {
		return slices.Contains(keep, id)
	})
	if err := d.Delete(ctx, stale); err != nil {
		return fmt.Errorf("deleting source %q: %w", source, err)
	}
	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

func toMetadata(doc vector.Document) map[string]any {
	meta := make(map[string]any, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta[vector.MetadataSource] = doc.Source
	meta["position"] = doc.Position
	return meta
}

func fromMetadata(doc *vector.Document, meta map[string]any) {
	for k, v := range meta {
		switch k {
		case vector.MetadataSource:
			doc.Source, _ = v.(string)
		case "position":
			if f, ok := v.(float64); ok {
				doc.Position = int(f)
			}
		default:
			if doc.Metadata == nil {
				doc.Metadata = make(map[string]string)
			}
			switch val := v.(type) {
			case string:
				doc.Metadata[k] = val
			case float64:
				doc.Metadata[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				doc.Metadata[k] = strconv.FormatBool(val)
			}
		}
	}
}
