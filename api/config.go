// Package api provides the docent HTTP API: question answering, document
// search and ingestion, summaries and session transcripts.
package api

import (
	"net/http"

	"github.com/papercomputeco/docent/pkg/ingest"
	"github.com/papercomputeco/docent/pkg/rag"
	"github.com/papercomputeco/docent/pkg/session"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Pipeline answers /v1/ask. Required.
	Pipeline *rag.Pipeline

	// Retriever backs /v1/search. Search answers 503 without it.
	Retriever *rag.Retriever

	// Summarizer backs /v1/summarize.
	Summarizer *rag.Summarizer

	// Ingestor and UploadDir back /v1/ingest; the Ingestor should name
	// sources relative to UploadDir. Pool, when set, enables async=true
	// uploads.
	Ingestor  *ingest.Ingestor
	Pool      *ingest.Pool
	UploadDir string

	// Sessions backs the /v1/sessions routes.
	Sessions session.Driver

	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler

	// BodyLimit caps request bodies in bytes. Defaults to 32 MiB.
	BodyLimit int
}
