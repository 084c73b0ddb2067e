// Package eventstream publishes answered questions to an event stream so
// other systems can follow what docent is being asked.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = "docent.answer.v1"

	// EventTypeAnswered is emitted after a question is answered.
	EventTypeAnswered = "docent.answered"
)

// AnswerEvent is a transport-neutral event payload for an answered question.
type AnswerEvent struct {
	SchemaVersion   string    `json:"schema_version"`
	EventType       string    `json:"event_type"`
	EventID         string    `json:"event_id"`
	OccurredAt      time.Time `json:"occurred_at"`
	SessionID       string    `json:"session_id,omitempty"`
	Mode            string    `json:"mode"`
	Question        string    `json:"question"`
	Answer          string    `json:"answer"`
	Sources         []string  `json:"sources"`
	Summary         []string  `json:"summary,omitempty"`
	RetrievedChunks int       `json:"retrieved_chunks"`
}

// NewAnswerEvent stamps a fresh event with its schema, ID and time.
func NewAnswerEvent(sessionID, mode, question, answer string) *AnswerEvent {
	return &AnswerEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeAnswered,
		EventID:       uuid.NewString(),
		OccurredAt:    time.Now().UTC(),
		SessionID:     sessionID,
		Mode:          mode,
		Question:      question,
		Answer:        answer,
		Sources:       []string{},
	}
}
