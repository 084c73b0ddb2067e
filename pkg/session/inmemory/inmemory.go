// Package inmemory provides a session.Driver that lives for the process.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/docent/pkg/session"
)

// Driver implements session.Driver using an in-memory map.
type Driver struct {
	mu sync.RWMutex

	// turns maps session IDs to their turns in append order
	turns map[string][]*session.Turn
}

// NewDriver creates a new in-memory session store.
func NewDriver() *Driver {
	return &Driver{
		turns: make(map[string][]*session.Turn),
	}
}

func (d *Driver) Append(_ context.Context, turn *session.Turn) error {
	if err := session.Validate(turn); err != nil {
		return err
	}
	session.Prepare(turn)

	stored := *turn
	stored.Sources = slices.Clone(turn.Sources)
	stored.Summary = slices.Clone(turn.Summary)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.turns[turn.SessionID] = append(d.turns[turn.SessionID], &stored)
	return nil
}

func (d *Driver) Turns(_ context.Context, sessionID string) ([]*session.Turn, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	turns, ok := d.turns[sessionID]
	if !ok {
		return nil, session.NotFoundError{SessionID: sessionID}
	}

	out := make([]*session.Turn, len(turns))
	for i, t := range turns {
		c := *t
		out[i] = &c
	}
	return out, nil
}

func (d *Driver) Sessions(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.turns))
	for id := range d.turns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (d *Driver) Close() error {
	return nil
}
