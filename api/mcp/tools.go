package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/docent/pkg/rag"
	"github.com/papercomputeco/docent/pkg/utils"
)

const previewLength = 200

var (
	askToolName    = "ask_documents"
	askDescription = "Answer a question from the ingested document collection. Returns the grounded answer, the source files it cites and a bullet summary."

	webToolName    = "web_search"
	webDescription = "Answer a question from the web. Picks a web search, encyclopedia or model knowledge lookup depending on the question and returns its raw result."

	searchToolName    = "search_documents"
	searchDescription = "Semantic search over the ingested document chunks. Returns the most similar chunks with their source and similarity score."

	summarizeToolName    = "summarize"
	summarizeDescription = "Condense text into three to five short bullet points."
)

// AskInput represents the input arguments for the ask_documents tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the documents"`
	SessionID string `json:"session_id,omitempty" jsonschema:"optional session to record the turn under"`
	NoSummary bool   `json:"no_summary,omitempty" jsonschema:"skip the bullet summary"`
}

// AskOutput is the structured answer of ask_documents.
type AskOutput struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources,omitempty"`
	Summary   []string `json:"summary,omitempty"`
	Retrieved int      `json:"retrieved"`
}

// WebInput represents the input arguments for the web_search tool.
type WebInput struct {
	Query string `json:"query" jsonschema:"the question to look up"`
}

// WebOutput is the raw web agent result.
type WebOutput struct {
	Result string `json:"result"`
}

// SearchInput represents the input arguments for the search_documents tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query text"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of results to return (default: the configured top k)"`
}

// SearchResult represents a single matching chunk.
type SearchResult struct {
	ID       string  `json:"id"`
	Source   string  `json:"source"`
	Position int     `json:"position"`
	Score    float32 `json:"score"`
	Preview  string  `json:"preview"`
}

// SearchOutput represents the output of the search_documents tool.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results,omitempty"`
	Count   int            `json:"count"`
}

// SummarizeInput represents the input arguments for the summarize tool.
type SummarizeInput struct {
	Text string `json:"text" jsonschema:"the text to summarize"`
}

// SummarizeOutput holds the summary lines.
type SummarizeOutput struct {
	Summary []string `json:"summary"`
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return errorResult("question is required"), AskOutput{}, nil
	}

	opts := []rag.AskOption{}
	if input.SessionID != "" {
		opts = append(opts, rag.WithSession(input.SessionID))
	}
	if input.NoSummary {
		opts = append(opts, rag.WithoutSummary())
	}

	s.config.Logger.Debug("MCP ask request", "question", input.Question)

	resp, err := s.config.Pipeline.Ask(ctx, rag.ModeDocuments, input.Question, opts...)
	if err != nil {
		s.config.Logger.Error("failed to answer question", "error", err)
		return errorResult(fmt.Sprintf("Failed to answer question: %v", err)), AskOutput{}, nil
	}

	return nil, AskOutput{
		Answer:    resp.Answer.Text,
		Sources:   resp.Answer.Sources,
		Summary:   resp.Summary,
		Retrieved: resp.Retrieved(),
	}, nil
}

func (s *Server) handleWeb(ctx context.Context, _ *mcp.CallToolRequest, input WebInput) (*mcp.CallToolResult, WebOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), WebOutput{}, nil
	}

	resp, err := s.config.Pipeline.Ask(ctx, rag.ModeWeb, input.Query)
	if err != nil {
		s.config.Logger.Error("web search failed", "error", err)
		return errorResult(fmt.Sprintf("Web search failed: %v", err)), WebOutput{}, nil
	}

	return nil, WebOutput{Result: resp.Answer.Text}, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), SearchOutput{}, nil
	}

	topK := input.TopK
	if topK <= 0 {
		topK = s.config.Retriever.TopK()
	}

	retrieval, err := s.config.Retriever.RetrieveWith(ctx, input.Query, topK, s.config.Retriever.Threshold())
	if err != nil {
		s.config.Logger.Error("failed to search documents", "error", err)
		return errorResult(fmt.Sprintf("Search failed: %v", err)), SearchOutput{}, nil
	}

	results := make([]SearchResult, 0, len(retrieval.Results))
	for _, r := range retrieval.Results {
		results = append(results, SearchResult{
			ID:       r.Document.ID,
			Source:   r.Document.Source,
			Position: r.Document.Position,
			Score:    r.Score,
			Preview:  utils.Truncate(r.Document.Text, previewLength),
		})
	}

	return nil, SearchOutput{
		Query:   input.Query,
		Results: results,
		Count:   len(results),
	}, nil
}

func (s *Server) handleSummarize(ctx context.Context, _ *mcp.CallToolRequest, input SummarizeInput) (*mcp.CallToolResult, SummarizeOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return errorResult("text is required"), SummarizeOutput{}, nil
	}

	return nil, SummarizeOutput{Summary: s.config.Summarizer.Summarize(ctx, input.Text)}, nil
}
