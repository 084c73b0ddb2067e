// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/docent/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
//
// Each collection is stored in two tables: <collection>_chunks holds the chunk
// text and attributes keyed by an integer rowid, and <collection>_vec is a vec0
// virtual table holding the embedding under the same rowid.
type Driver struct {
	db         *sql.DB
	logger     *slog.Logger
	dimensions int
	chunks     string
	vecs       string
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Collection names the table pair the driver reads and writes.
	Collection string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}
	if !vector.ValidCollectionName(c.Collection) {
		return nil, fmt.Errorf("%w: %q", vector.ErrInvalidCollection, c.Collection)
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	d := &Driver{
		db:         db,
		logger:     logger,
		dimensions: int(c.Dimensions),
		chunks:     c.Collection + "_chunks",
		vecs:       c.Collection + "_vec",
	}

	// vec0 virtual tables use integer rowids, so chunk IDs map to rowids
	// through the chunks table.
	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			chunk_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			source TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			metadata TEXT NOT NULL DEFAULT '{}'
		)
	`, d.chunks))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_source ON %s(source)`, d.chunks, d.chunks,
	)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating source index: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(embedding float[%d] distance_metric=cosine)`,
		d.vecs, c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"collection", c.Collection,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return d, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func (d *Driver) checkDims(id string, emb []float32) error {
	if len(emb) != d.dimensions {
		return fmt.Errorf("%w: %s has %d dimensions, collection has %d",
			vector.ErrDimensionMismatch, id, len(emb), d.dimensions)
	}
	return nil
}

// Add stores documents with their embeddings.
// If a document with the same ID already exists, it is replaced.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		if err := d.checkDims(doc.ID, doc.Embedding); err != nil {
			return err
		}

		meta, err := json.Marshal(orEmpty(doc.Metadata))
		if err != nil {
			return fmt.Errorf("encoding metadata for doc %s: %w", doc.ID, err)
		}

		if err := d.deleteTx(ctx, tx, "chunk_id = ?", doc.ID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, fmt.Sprintf(
			`INSERT INTO %s(chunk_id, text, source, position, metadata) VALUES (?, ?, ?, ?, ?)`, d.chunks),
			doc.ID, doc.Text, doc.Source, doc.Position, string(meta),
		)
		if err != nil {
			return fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
		}

		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`INSERT INTO %s(rowid, embedding) VALUES (?, ?)`, d.vecs),
			rowID, serializeFloat32(doc.Embedding),
		); err != nil {
			return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to sqlite-vec", "count", len(docs))
	return nil
}

// Query runs a KNN match against the vec0 table and ranks the hits.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, threshold float32) ([]vector.QueryResult, error) {
	if err := d.checkDims("query", embedding); err != nil {
		return nil, err
	}

	k := topK
	if k <= 0 {
		if err := d.db.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT COUNT(*) FROM %s`, d.chunks),
		).Scan(&k); err != nil {
			return nil, fmt.Errorf("counting documents: %w", err)
		}
		if k == 0 {
			return []vector.QueryResult{}, nil
		}
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT c.chunk_id, c.text, c.source, c.position, c.metadata, v.distance
		FROM %s v
		INNER JOIN %s c ON c.rowid = v.rowid
		WHERE v.embedding MATCH ?
			AND v.k = ?
		ORDER BY v.distance
	`, d.vecs, d.chunks), serializeFloat32(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var (
			doc      vector.Document
			meta     string
			distance float64
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &doc.Source, &doc.Position, &meta, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		if doc.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}

		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    vector.DistanceToSimilarity(float32(distance)),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	ranked := vector.Rank(results, topK, threshold)
	d.logger.Debug("queried sqlite-vec", "candidates", len(results), "results", len(ranked))
	return ranked, nil
}

// Get retrieves documents by their IDs. Unknown IDs are skipped.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(ids)
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT c.chunk_id, c.text, c.source, c.position, c.metadata, v.embedding
		FROM %s c
		LEFT JOIN %s v ON v.rowid = c.rowid
		WHERE c.chunk_id IN (%s)
	`, d.chunks, d.vecs, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]vector.Document, 0, len(ids))
	for rows.Next() {
		var (
			doc  vector.Document
			meta string
			blob []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &doc.Source, &doc.Position, &meta, &blob); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if doc.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, err
		}
		if len(blob) > 0 {
			if doc.Embedding, err = deserializeFloat32(blob); err != nil {
				return nil, err
			}
		}
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

	placeholders, args := inClause(ids)
	return d.deleteWhere(ctx, "chunk_id IN ("+placeholders+")", args...)
}

// DeleteSource removes every chunk originating from source except the IDs in
// keep.
func (d *Driver) DeleteSource(ctx context.Context, source string, keep ...string) error {
	if len(keep) == 0 {
		return d.deleteWhere(ctx, "source = ?", source)
	}

	placeholders, args := inClause(keep)
	return d.deleteWhere(ctx, "source = ? AND chunk_id NOT IN ("+placeholders+")", append([]any{source}, args...)...)
}

func (d *Driver) deleteWhere(ctx context.Context, where string, args ...any) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := d.deleteTx(ctx, tx, where, args...); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// deleteTx removes matching rows from both tables. vec0 does not support
// UPDATE, so replacements go through here as well.
func (d *Driver) deleteTx(ctx context.Context, tx *sql.Tx, where string, args ...any) error {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf(`SELECT rowid FROM %s WHERE %s`, d.chunks, where), args...)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, d.vecs), rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, d.chunks), rowID,
		); err != nil {
			return fmt.Errorf("deleting chunk rowid %d: %w", rowID, err)
		}
	}

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

func inClause(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func decodeMetadata(raw string) (map[string]string, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return m, nil
}
