// Package qdrant provides a vector.Driver backed by a Qdrant server over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/docent/pkg/vector"
)

const (
	defaultPort = 6334

	payloadChunkID  = "chunk_id"
	payloadText     = "text"
	payloadPosition = "position"
	payloadMetadata = "metadata"
)

// pointNamespace scopes the UUIDs derived from chunk IDs. Qdrant only accepts
// unsigned integers or UUIDs as point IDs.
var pointNamespace = uuid.MustParse("6f1c9a52-3c8e-4d5b-9a7e-2b0d4c1e8f37")

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the gRPC host:port of the Qdrant server. The port defaults to 6334.
	Target string

	// APIKey is sent with every request when set.
	APIKey string

	// UseTLS enables transport security.
	UseTLS bool

	Collection string
	Dimensions uint
}

// Driver implements vector.Driver using the Qdrant Go client.
type Driver struct {
	client     *qdrant.Client
	collection string
	dimensions int
	logger     *slog.Logger
}

// NewDriver connects to Qdrant and creates the collection with cosine
// distance when it does not exist yet.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}
	if !vector.ValidCollectionName(c.Collection) {
		return nil, fmt.Errorf("%w: %q", vector.ErrInvalidCollection, c.Collection)
	}

	host, port, err := splitTarget(c.Target)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, c.Collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection %q: %w", vector.ErrConnection, c.Collection, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", c.Collection, err)
		}
		logger.Info("created qdrant collection", "collection", c.Collection, "dimensions", c.Dimensions)
	}

	logger.Info("qdrant vector driver initialized",
		"host", host,
		"port", port,
		"collection", c.Collection,
	)

	return &Driver{
		client:     client,
		collection: c.Collection,
		dimensions: int(c.Dimensions),
		logger:     logger,
	}, nil
}

func splitTarget(target string) (string, int, error) {
	if target == "" {
		return "localhost", defaultPort, nil
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// no port given
		return target, defaultPort, nil //nolint:nilerr
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}

// PointID derives the Qdrant point UUID for a chunk ID.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

// Add upserts documents as points carrying their text and attributes as payload.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Embedding) != d.dimensions {
			return fmt.Errorf("%w: %s has %d dimensions, collection has %d",
				vector.ErrDimensionMismatch, doc.ID, len(doc.Embedding), d.dimensions)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(doc.ID)),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(toPayload(doc)),
		})
	}

	wait := true
	if _, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant", "count", len(docs))
	return nil
}

// Query runs a nearest neighbour search with the threshold pushed down to Qdrant.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, threshold float32) ([]vector.QueryResult, error) {
	if len(embedding) != d.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			vector.ErrDimensionMismatch, len(embedding), d.dimensions)
	}

	limit := uint64(max(topK, 0))
	if limit == 0 {
		exact := true
		count, err := d.client.Count(ctx, &qdrant.CountPoints{
			CollectionName: d.collection,
			Exact:          &exact,
		})
		if err != nil {
			return nil, fmt.Errorf("counting points: %w", err)
		}
		if count == 0 {
			return []vector.QueryResult{}, nil
		}
		limit = count
	}

	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		results = append(results, vector.QueryResult{
			Document: fromPayload(p.GetPayload()),
			Score:    p.GetScore(),
		})
	}

	return vector.Rank(results, topK, threshold), nil
}

// Get retrieves documents by their chunk IDs. Unknown IDs are skipped.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs(ids),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(points))
	for _, p := range points {
		doc := fromPayload(p.GetPayload())
		if v := p.GetVectors().GetVector(); v != nil {
			if dense := v.GetDense(); dense != nil {
				doc.Embedding = dense.GetData()
			} else {
				doc.Embedding = v.GetData()
			}
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Delete removes documents by their chunk IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	return d.delete(ctx, qdrant.NewPointsSelector(pointIDs(ids)...))
}

// DeleteSource removes every point whose payload source matches, except the
// chunk IDs in keep.
func (d *Driver) DeleteSource(ctx context.Context, source string, keep ...string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(vector.MetadataSource, source),
		},
	}
	if len(keep) > 0 {
		filter.MustNot = []*qdrant.Condition{
			qdrant.NewHasID(pointIDs(keep)...),
		}
	}
	return d.delete(ctx, qdrant.NewPointsSelectorFilter(filter))
}

func (d *Driver) delete(ctx context.Context, selector *qdrant.PointsSelector) error {
	wait := true
	if _, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         selector,
	}); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}
	return nil
}

// Close releases the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func pointIDs(ids []string) []*qdrant.PointId {
	out := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		out[i] = qdrant.NewID(PointID(id))
	}
	return out
}

func toPayload(doc vector.Document) map[string]any {
	payload := map[string]any{
		payloadChunkID:        doc.ID,
		payloadText:           doc.Text,
		vector.MetadataSource: doc.Source,
		payloadPosition:       int64(doc.Position),
	}
	if len(doc.Metadata) > 0 {
		meta := make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		payload[payloadMetadata] = meta
	}
	return payload
}

func fromPayload(payload map[string]*qdrant.Value) vector.Document {
	doc := vector.Document{
		ID:       payload[payloadChunkID].GetStringValue(),
		Text:     payload[payloadText].GetStringValue(),
		Source:   payload[vector.MetadataSource].GetStringValue(),
		Position: int(payload[payloadPosition].GetIntegerValue()),
	}

	if fields := payload[payloadMetadata].GetStructValue().GetFields(); len(fields) > 0 {
		doc.Metadata = make(map[string]string, len(fields))
		for k, v := range fields {
			doc.Metadata[k] = v.GetStringValue()
		}
	}

	return doc
}
