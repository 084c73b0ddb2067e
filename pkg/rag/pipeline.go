package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/docent/pkg/eventstream"
	"github.com/papercomputeco/docent/pkg/session"
)

// Mode selects how a query is answered. Modes share no state.
type Mode string

const (
	// ModeDocuments answers from the ingested collection.
	ModeDocuments Mode = session.ModeDocuments

	// ModeWeb bypasses retrieval and asks the web search agent.
	ModeWeb Mode = session.ModeWeb
)

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("unknown mode")

// ErrEmptyQuestion is returned by Ask for blank questions.
var ErrEmptyQuestion = errors.New("question is empty")

// ParseMode accepts docs, documents and web.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "docs", "doc", "documents", "rag":
		return ModeDocuments, nil
	case "web", "search":
		return ModeWeb, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// WebSearcher answers a query without local grounding.
type WebSearcher interface {
	Ask(ctx context.Context, query string) (string, error)
}

// Response is the outcome of one question.
type Response struct {
	Mode      Mode
	SessionID string
	Question  string
	Answer    *Answer
	Summary   []string

	// Retrieval is nil in web mode.
	Retrieval *Retrieval
}

// Retrieved reports how many chunks grounded the answer.
func (r *Response) Retrieved() int {
	if r.Retrieval == nil {
		return 0
	}
	return len(r.Retrieval.Results)
}

// Format renders the response as markdown: the answer block, then the
// summary bullets when there are any. Web answers carry their own heading.
func (r *Response) Format() string {
	var b strings.Builder
	if r.Mode == ModeWeb {
		b.WriteString("### 🌐 Web Response\n")
		b.WriteString(r.Answer.Text)
		return b.String()
	}

	b.WriteString(r.Answer.Format())
	if len(r.Summary) > 0 {
		b.WriteString("\n\n### 🔍 TL;DR Summary\n")
		for _, point := range r.Summary {
			b.WriteString("- " + point + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// PipelineConfig wires a Pipeline. Only the members needed by the modes in
// use are required.
type PipelineConfig struct {
	Retriever  *Retriever
	Composer   *Composer
	Summarizer *Summarizer
	Web        WebSearcher

	// Sessions records every answered question when set.
	Sessions session.Driver

	// Publisher receives an answer event per question when set.
	Publisher eventstream.Publisher

	Logger *slog.Logger
}

// Pipeline dispatches questions to the documents or web flow.
type Pipeline struct {
	retriever  *Retriever
	composer   *Composer
	summarizer *Summarizer
	web        WebSearcher
	sessions   session.Driver
	publisher  eventstream.Publisher
	logger     *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(c PipelineConfig) *Pipeline {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		retriever:  c.Retriever,
		composer:   c.Composer,
		summarizer: c.Summarizer,
		web:        c.Web,
		sessions:   c.Sessions,
		publisher:  c.Publisher,
		logger:     logger,
	}
}

type askOptions struct {
	sessionID string
	noSummary bool
}

// AskOption tunes a single Ask.
type AskOption func(*askOptions)

// WithSession records the turn under sessionID.
func WithSession(sessionID string) AskOption {
	return func(o *askOptions) { o.sessionID = sessionID }
}

// WithoutSummary skips the summarizer.
func WithoutSummary() AskOption {
	return func(o *askOptions) { o.noSummary = true }
}

// Ask answers query in mode. Documents mode retrieves, composes and
// summarizes. Model faults are folded into the response. Retrieval faults
// and web search faults are returned.
func (p *Pipeline) Ask(ctx context.Context, mode Mode, query string, opts ...AskOption) (*Response, error) {
	var o askOptions
	for _, opt := range opts {
		opt(&o)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuestion
	}

	var (
		resp *Response
		err  error
	)
	switch mode {
	case ModeDocuments:
		resp, err = p.askDocuments(ctx, query, o)
	case ModeWeb:
		resp, err = p.askWeb(ctx, query)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if err != nil {
		return nil, err
	}

	resp.SessionID = o.sessionID
	p.record(ctx, resp)
	return resp, nil
}

func (p *Pipeline) askDocuments(ctx context.Context, query string, o askOptions) (*Response, error) {
	if p.retriever == nil || p.composer == nil {
		return nil, errors.New("documents mode is not configured")
	}

	retrieval, err := p.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	answer := p.composer.Compose(ctx, query, retrieval)

	var summary []string
	if !o.noSummary && p.summarizer != nil {
		summary = p.summarizer.Summarize(ctx, answer.Text)
	}

	return &Response{
		Mode:      ModeDocuments,
		Question:  query,
		Answer:    answer,
		Summary:   summary,
		Retrieval: retrieval,
	}, nil
}

func (p *Pipeline) askWeb(ctx context.Context, query string) (*Response, error) {
	if p.web == nil {
		return nil, errors.New("web mode is not configured")
	}

	result, err := p.web.Ask(ctx, query)
	if err != nil {
		return nil, err
	}

	return &Response{
		Mode:     ModeWeb,
		Question: query,
		Answer:   &Answer{Text: result, Sources: []string{}},
	}, nil
}

// record stores and publishes the response. Failures are logged only.
func (p *Pipeline) record(ctx context.Context, resp *Response) {
	if p.sessions != nil && resp.SessionID != "" {
		if err := p.sessions.Append(ctx, &session.Turn{
			SessionID: resp.SessionID,
			Mode:      string(resp.Mode),
			Question:  resp.Question,
			Answer:    resp.Answer.Text,
			Sources:   resp.Answer.Sources,
			Summary:   resp.Summary,
		}); err != nil {
			p.logger.Warn("failed to record session turn", "session_id", resp.SessionID, "error", err)
		}
	}

	if p.publisher != nil {
		event := eventstream.NewAnswerEvent(resp.SessionID, string(resp.Mode), resp.Question, resp.Answer.Text)
		event.Sources = resp.Answer.Sources
		event.Summary = resp.Summary
		event.RetrievedChunks = resp.Retrieved()
		if err := p.publisher.PublishAnswer(ctx, event); err != nil {
			p.logger.Warn("failed to publish answer event", "event_id", event.EventID, "error", err)
		}
	}
}
