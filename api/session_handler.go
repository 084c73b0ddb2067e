package api

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/docent/pkg/export"
	"github.com/papercomputeco/docent/pkg/session"
)

// SessionsResponse lists known session IDs.
type SessionsResponse struct {
	Sessions []string `json:"sessions"`
}

// SessionResponse is a session's turns, oldest first.
type SessionResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []TurnMessage `json:"turns"`
}

// TurnMessage is one stored question and answer.
type TurnMessage struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Sources   []string  `json:"sources"`
	Summary   []string  `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	if s.config.Sessions == nil {
		return unavailable(c, "session storage is not configured")
	}

	ids, err := s.config.Sessions.Sessions(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(SessionsResponse{Sessions: ids})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	if s.config.Sessions == nil {
		return unavailable(c, "session storage is not configured")
	}

	id := c.Params("id")
	turns, err := s.config.Sessions.Turns(c.Context(), id)
	if err != nil {
		return s.fail(c, err)
	}

	msgs := make([]TurnMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, TurnMessage{
			ID:        t.ID,
			Mode:      t.Mode,
			Question:  t.Question,
			Answer:    t.Answer,
			Sources:   t.Sources,
			Summary:   t.Summary,
			CreatedAt: t.CreatedAt,
		})
	}
	return c.JSON(SessionResponse{SessionID: id, Turns: msgs})
}

// handleExportSession renders a session transcript as a download.
// Query parameters:
//   - format (optional, default txt): txt, pdf or docx
func (s *Server) handleExportSession(c *fiber.Ctx) error {
	if s.config.Sessions == nil {
		return unavailable(c, "session storage is not configured")
	}

	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return s.fail(c, err)
	}

	id := c.Params("id")
	turns, err := s.config.Sessions.Turns(c.Context(), id)
	if err != nil {
		return s.fail(c, err)
	}

	var buf bytes.Buffer
	if err := export.Export(format, session.Transcript(turns), &buf); err != nil {
		return s.fail(c, err)
	}

	c.Attachment("chat_" + id + export.Extension(format))
	c.Set(fiber.HeaderContentType, export.ContentType(format))
	return c.Send(buf.Bytes())
}
