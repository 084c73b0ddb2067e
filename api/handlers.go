package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/docent/pkg/rag"
	"github.com/papercomputeco/docent/pkg/session"
)

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Question  string `json:"question"`
	Mode      string `json:"mode,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	NoSummary bool   `json:"no_summary,omitempty"`
}

// AskResponse is the answer to a question. Error carries a model fault that
// was folded into the answer text.
type AskResponse struct {
	Mode      string   `json:"mode" yaml:"mode"`
	SessionID string   `json:"session_id" yaml:"session_id"`
	Question  string   `json:"question" yaml:"question"`
	Answer    string   `json:"answer" yaml:"answer"`
	Sources   []string `json:"sources" yaml:"sources"`
	Summary   []string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Retrieved int      `json:"retrieved" yaml:"retrieved"`
	Formatted string   `json:"formatted" yaml:"formatted"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// SearchResult is a single chunk returned by GET /v1/search.
type SearchResult struct {
	ID       string  `json:"id" yaml:"id"`
	Source   string  `json:"source" yaml:"source"`
	Position int     `json:"position" yaml:"position"`
	Score    float32 `json:"score" yaml:"score"`
	Text     string  `json:"text" yaml:"text"`
}

// SearchResponse is the body of GET /v1/search.
type SearchResponse struct {
	Query   string         `json:"query" yaml:"query"`
	Results []SearchResult `json:"results" yaml:"results"`
	Sources []string       `json:"sources" yaml:"sources"`
	Count   int            `json:"count" yaml:"count"`
}

// SummarizeRequest is the body of POST /v1/summarize.
type SummarizeRequest struct {
	Text string `json:"text"`
}

// SummarizeResponse holds the summary lines.
type SummarizeResponse struct {
	Summary []string `json:"summary"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleAsk answers a question in documents or web mode. A request without
// a session ID starts a new session.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	mode, err := rag.ParseMode(req.Mode)
	if err != nil {
		return s.fail(c, err)
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = session.NewID()
	}

	opts := []rag.AskOption{rag.WithSession(sessionID)}
	if req.NoSummary {
		opts = append(opts, rag.WithoutSummary())
	}

	resp, err := s.config.Pipeline.Ask(c.Context(), mode, req.Question, opts...)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(NewAskResponse(resp))
}

// NewAskResponse converts a pipeline response for the wire.
func NewAskResponse(resp *rag.Response) AskResponse {
	out := AskResponse{
		Mode:      string(resp.Mode),
		SessionID: resp.SessionID,
		Question:  resp.Question,
		Answer:    resp.Answer.Text,
		Sources:   resp.Answer.Sources,
		Summary:   resp.Summary,
		Retrieved: resp.Retrieved(),
		Formatted: resp.Format(),
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}
	if resp.Answer.Err != nil {
		out.Error = resp.Answer.Err.Error()
	}
	return out
}

// handleSearch handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional): number of results to return
//   - threshold (optional): minimum similarity in [-1, 1]
func (s *Server) handleSearch(c *fiber.Ctx) error {
	if s.config.Retriever == nil {
		return unavailable(c, "search is not configured: retriever is required")
	}

	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return badRequest(c, "query parameter is required")
	}

	topK := s.config.Retriever.TopK()
	if topKStr := c.Query("top_k"); topKStr != "" {
		parsed, err := strconv.Atoi(topKStr)
		if err != nil || parsed <= 0 {
			return badRequest(c, "top_k must be a positive integer")
		}
		topK = parsed
	}

	threshold := s.config.Retriever.Threshold()
	if thresholdStr := c.Query("threshold"); thresholdStr != "" {
		parsed, err := strconv.ParseFloat(thresholdStr, 32)
		if err != nil || parsed < -1 || parsed > 1 {
			return badRequest(c, "threshold must be a number between -1 and 1")
		}
		threshold = float32(parsed)
	}

	retrieval, err := s.config.Retriever.RetrieveWith(c.Context(), query, topK, threshold)
	if err != nil {
		return s.fail(c, err)
	}

	results := make([]SearchResult, 0, len(retrieval.Results))
	for _, r := range retrieval.Results {
		results = append(results, SearchResult{
			ID:       r.Document.ID,
			Source:   r.Document.Source,
			Position: r.Document.Position,
			Score:    r.Score,
			Text:     r.Document.Text,
		})
	}

	return c.JSON(SearchResponse{
		Query:   query,
		Results: results,
		Sources: retrieval.Sources(),
		Count:   len(results),
	})
}

// handleSummarize condenses arbitrary text into bullets.
func (s *Server) handleSummarize(c *fiber.Ctx) error {
	if s.config.Summarizer == nil {
		return unavailable(c, "summarizer is not configured")
	}

	var req SummarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "text is required")
	}

	return c.JSON(SummarizeResponse{Summary: s.config.Summarizer.Summarize(c.Context(), req.Text)})
}
