// Package session persists asked questions and their answers so a
// conversation can be listed and exported later.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Mode values recorded on turns.
const (
	ModeDocuments = "documents"
	ModeWeb       = "web"
)

// Turn is one answered question within a session.
type Turn struct {
	ID        string
	SessionID string
	Mode      string
	Question  string
	Answer    string
	Sources   []string
	Summary   []string
	CreatedAt time.Time
}

// Driver defines the interface for persisting and reading session turns.
type Driver interface {
	// Append stores a turn. A missing ID or CreatedAt is filled in.
	Append(ctx context.Context, turn *Turn) error

	// Turns returns a session's turns, oldest first. An unknown session is
	// a NotFoundError.
	Turns(ctx context.Context, sessionID string) ([]*Turn, error)

	// Sessions lists the IDs of every session with at least one turn.
	Sessions(ctx context.Context) ([]string, error)

	// Close releases any resources.
	Close() error
}

// NewID returns a fresh session or turn identifier.
func NewID() string {
	return uuid.NewString()
}

// Prepare fills in the ID and timestamp of a turn about to be stored.
func Prepare(turn *Turn) {
	if turn.ID == "" {
		turn.ID = NewID()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	if turn.Sources == nil {
		turn.Sources = []string{}
	}
	if turn.Summary == nil {
		turn.Summary = []string{}
	}
}
