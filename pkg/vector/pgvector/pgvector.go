// Package pgvector provides a PostgreSQL vector.Driver using the pgvector extension.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx PostgreSQL driver as "pgx"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/papercomputeco/docent/pkg/vector"
)

// Config holds configuration for the pgvector driver.
type Config struct {
	// ConnString is a PostgreSQL connection string or URI.
	ConnString string

	Collection string
	Dimensions uint
}

// Driver implements vector.Driver on a single PostgreSQL table per
// collection, scoring with the cosine distance operator.
type Driver struct {
	db         *sql.DB
	table      string
	dimensions int
	logger     *slog.Logger
}

// NewDriver opens the database, enables the vector extension and creates the
// collection table.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.ConnString == "" {
		return nil, errors.New("postgres connection string is required")
	}

	db, err := sql.Open("pgx", c.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	d, err := NewDriverFromDB(ctx, db, c.Collection, c.Dimensions, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// NewDriverFromDB wraps an open database handle. The driver owns db afterwards.
func NewDriverFromDB(ctx context.Context, db *sql.DB, collection string, dimensions uint, logger *slog.Logger) (*Driver, error) {
	if dimensions == 0 {
		return nil, errors.New("pgvector embedding dimensions cannot be 0, must be configured")
	}
	if !vector.ValidCollectionName(collection) {
		return nil, fmt.Errorf("%w: %q", vector.ErrInvalidCollection, collection)
	}

	d := &Driver{
		db:         db,
		table:      strings.ToLower(collection) + "_chunks",
		dimensions: int(dimensions),
		logger:     logger,
	}

	if err := d.migrate(ctx); err != nil {
		return nil, err
	}

	logger.Info("pgvector vector driver initialized",
		"table", d.table,
		"dimensions", dimensions,
	)
	return d, nil
}

func (d *Driver) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			source TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d) NOT NULL
		)`, d.table, d.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_source_idx ON %s (source)`, d.table, d.table),
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating pgvector schema: %w", err)
		}
	}
	return nil
}

// Add upserts documents keyed by chunk ID.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, text, source, position, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			source = EXCLUDED.source,
			position = EXCLUDED.position,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding
	`, d.table)

	for _, doc := range docs {
		if len(doc.Embedding) != d.dimensions {
			return fmt.Errorf("%w: %s has %d dimensions, collection has %d",
				vector.ErrDimensionMismatch, doc.ID, len(doc.Embedding), d.dimensions)
		}

		meta := doc.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encoding metadata for doc %s: %w", doc.ID, err)
		}

		if _, err := tx.ExecContext(ctx, stmt,
			doc.ID, doc.Text, doc.Source, doc.Position, string(metaJSON), pgv.NewVector(doc.Embedding),
		); err != nil {
			return fmt.Errorf("upserting document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to pgvector", "count", len(docs))
	return nil
}

// Query orders by cosine distance and filters on similarity in SQL.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, threshold float32) ([]vector.QueryResult, error) {
	if len(embedding) != d.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			vector.ErrDimensionMismatch, len(embedding), d.dimensions)
	}

	query := fmt.Sprintf(`
		SELECT id, text, source, position, metadata, 1 - (embedding <=> $1) AS similarity
		FROM %s
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1, id
	`, d.table)
	args := []any{pgv.NewVector(embedding), threshold}
	if topK > 0 {
		query += " LIMIT $3"
		args = append(args, topK)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var (
			doc   vector.Document
			meta  []byte
			score float64
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &doc.Source, &doc.Position, &meta, &score); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		if doc.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		results = append(results, vector.QueryResult{Document: doc, Score: float32(score)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	return vector.Rank(results, topK, threshold), nil
}

// Get retrieves documents by their IDs. Unknown IDs are skipped.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(ids, 1)
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, text, source, position, metadata, embedding FROM %s WHERE id IN (%s)`,
		d.table, placeholders,
	), args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]vector.Document, 0, len(ids))
	for rows.Next() {
		var (
			doc  vector.Document
			meta []byte
			emb  pgv.Vector
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &doc.Source, &doc.Position, &meta, &emb); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if doc.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		doc.Embedding = emb.Slice()
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders, args := inClause(ids, 1)
	if _, err := d.db.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE id IN (%s)`, d.table, placeholders,
	), args...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	return nil
}

// DeleteSource removes every chunk originating from source except the IDs in
// keep.
func (d *Driver) DeleteSource(ctx context.Context, source string, keep ...string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE source = $1`, d.table)
	args := []any{source}
	if len(keep) > 0 {
		placeholders, keepArgs := inClause(keep, 2)
		query += " AND id NOT IN (" + placeholders + ")"
		args = append(args, keepArgs...)
	}

	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting source %q: %w", source, err)
	}
	return nil
}

// Close releases the database handle.
func (d *Driver) Close() error {
	return d.db.Close()
}

// inClause numbers its placeholders from first.
func inClause(ids []string, first int) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", first+i)
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func decodeMetadata(raw []byte) (map[string]string, error) {
	if len(raw) == 0 || string(raw) == "{}" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return m, nil
}
