// Package sqlstore implements session.Driver over database/sql. Queries are
// built with ent's dialect-aware SQL builder so SQLite and PostgreSQL share
// one implementation.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/docent/pkg/session"
)

const table = "session_turns"

var columns = []string{"id", "session_id", "mode", "question", "answer", "sources", "summary", "created_at"}

// Store is a session.Driver on a SQL database.
type Store struct {
	db      *sql.DB
	dialect string
}

// New wraps db and creates the schema. dialectName is dialect.SQLite or
// dialect.Postgres. The store owns db afterwards.
func New(ctx context.Context, db *sql.DB, dialectName string) (*Store, error) {
	if dialectName != dialect.SQLite && dialectName != dialect.Postgres {
		return nil, fmt.Errorf("unsupported session store dialect: %s", dialectName)
	}

	s := &Store{db: db, dialect: dialectName}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// The schema is portable between SQLite and PostgreSQL, so it is shared.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + table + ` (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		sources TEXT NOT NULL,
		summary TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ` + table + `_session_idx ON ` + table + ` (session_id, created_at)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Append(ctx context.Context, turn *session.Turn) error {
	if err := session.Validate(turn); err != nil {
		return err
	}
	session.Prepare(turn)

	sources, err := json.Marshal(turn.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}
	summary, err := json.Marshal(turn.Summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	query, args := entsql.Dialect(s.dialect).
		Insert(table).
		Columns(columns...).
		Values(turn.ID, turn.SessionID, turn.Mode, turn.Question, turn.Answer,
			string(sources), string(summary), turn.CreatedAt.UnixNano()).
		Query()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

func (s *Store) Turns(ctx context.Context, sessionID string) ([]*session.Turn, error) {
	query, args := entsql.Dialect(s.dialect).
		Select(columns...).
		From(entsql.Table(table)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("created_at", "id").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []*session.Turn
	for rows.Next() {
		var (
			t                session.Turn
			sources, summary string
			createdAt        int64
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Mode, &t.Question, &t.Answer, &sources, &summary, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &t.Sources); err != nil {
			return nil, fmt.Errorf("decoding sources: %w", err)
		}
		if err := json.Unmarshal([]byte(summary), &t.Summary); err != nil {
			return nil, fmt.Errorf("decoding summary: %w", err)
		}
		t.CreatedAt = time.Unix(0, createdAt).UTC()
		turns = append(turns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	if len(turns) == 0 {
		return nil, session.NotFoundError{SessionID: sessionID}
	}
	return turns, nil
}

func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	query, args := entsql.Dialect(s.dialect).
		Select("session_id").
		Distinct().
		From(entsql.Table(table)).
		OrderBy("session_id").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
