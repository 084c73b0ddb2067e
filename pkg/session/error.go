package session

import "errors"

// ErrInvalidTurn is returned when a turn cannot be stored.
var ErrInvalidTurn = errors.New("invalid turn")

// NotFoundError is returned when a session has no turns.
type NotFoundError struct {
	SessionID string
}

func (e NotFoundError) Error() string {
	if e.SessionID == "" {
		return "session not found"
	}

	return "session not found: " + e.SessionID
}

// Validate checks the fields every stored turn needs.
func Validate(turn *Turn) error {
	switch {
	case turn == nil:
		return errors.Join(ErrInvalidTurn, errors.New("nil turn"))
	case turn.SessionID == "":
		return errors.Join(ErrInvalidTurn, errors.New("session id is required"))
	case turn.Question == "":
		return errors.Join(ErrInvalidTurn, errors.New("question is required"))
	}
	return nil
}
