// Package ingest turns documents on disk into embedded chunks in a vector
// store: extract, chunk, embed and upsert, one file at a time.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/papercomputeco/docent/pkg/embeddings"
	"github.com/papercomputeco/docent/pkg/vector"
)

// Config wires an Ingestor.
type Config struct {
	Embedder embeddings.Embedder
	Driver   vector.Driver
	Chunker  *Chunker
	Logger   *slog.Logger

	// Root is the directory sources are named relative to. Empty means the
	// working directory.
	Root string

	// SourceName maps a file path to the source identifier stored with its
	// chunks. Defaults to SourceFor(Root, path).
	SourceName func(path string) string
}

// Ingestor writes documents into a single collection.
type Ingestor struct {
	embedder   embeddings.Embedder
	driver     vector.Driver
	chunker    *Chunker
	logger     *slog.Logger
	sourceName func(string) string
	custom     bool
	locks      *sourceLocks
}

// New creates an Ingestor. Embedder and Driver are required.
func New(c Config) (*Ingestor, error) {
	if c.Embedder == nil || c.Driver == nil {
		return nil, fmt.Errorf("ingestor requires an embedder and a vector driver")
	}

	chunker := c.Chunker
	if chunker == nil {
		var err error
		if chunker, err = NewChunker(DefaultChunkSize, DefaultChunkOverlap); err != nil {
			return nil, err
		}
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	i := &Ingestor{
		embedder:   c.Embedder,
		driver:     c.Driver,
		chunker:    chunker,
		logger:     logger,
		sourceName: c.SourceName,
		custom:     c.SourceName != nil,
		locks:      newSourceLocks(),
	}
	if !i.custom {
		i.sourceName = rootedName(c.Root)
	}
	return i, nil
}

// WithRoot returns an Ingestor that names sources relative to root. It
// shares the store and the per-source locks of i. A custom SourceName is
// kept as is.
func (i *Ingestor) WithRoot(root string) *Ingestor {
	c := *i
	if !c.custom {
		c.sourceName = rootedName(root)
	}
	return &c
}

// SourceFor names the source of path: its slash-separated path relative to
// root, or to the working directory when root is empty. Paths outside root
// are named by their absolute path, so two files never share a source unless
// they are the same file.
func SourceFor(root, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	base := root
	if base == "" {
		base = "."
	}
	if b, err := filepath.Abs(base); err == nil {
		if rel, err := filepath.Rel(b, abs); err == nil &&
			rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(abs)
}

func rootedName(root string) func(string) string {
	return func(path string) string { return SourceFor(root, path) }
}

// Ingest processes every path. A file that fails at any stage is recorded in
// Report.Skipped and the batch continues. Only context cancellation stops the
// batch early, returning the partial report with the context error.
func (i *Ingestor) Ingest(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{
		Ingested: []FileReport{},
		Skipped:  []SkippedFile{},
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		fr, err := i.ingestFile(ctx, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			i.logger.Warn("skipping file", "path", path, "error", err)
			report.skip(path, err)
			continue
		}

		i.logger.Info("ingested file", "path", path, "source", fr.Source, "chunks", fr.Chunks)
		report.Ingested = append(report.Ingested, *fr)
	}

	return report, nil
}

func (i *Ingestor) ingestFile(ctx context.Context, path string) (*FileReport, error) {
	text, err := Extract(path)
	if err != nil {
		return nil, err
	}

	source := i.sourceName(path)
	unlock := i.locks.lock(source)
	defer unlock()

	chunks := i.chunker.Split(source, text)

	docs := make([]vector.Document, 0, len(chunks))
	for _, chunk := range chunks {
		emb, err := i.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d of %s: %w", chunk.Position, source, err)
		}

		docs = append(docs, vector.Document{
			ID:        chunk.ID,
			Text:      chunk.Text,
			Source:    chunk.Source,
			Position:  chunk.Position,
			Metadata:  map[string]string{"path": path},
			Embedding: emb,
		})
	}

	i.logger.Debug("embedded chunks", "source", source, "chunks", len(docs))

	// The new chunks land before the old ones are pruned, so a failed write
	// leaves the previous version searchable.
	if err := i.driver.Add(ctx, docs); err != nil {
		return nil, fmt.Errorf("storing chunks of %s: %w", source, err)
	}

	ids := make([]string, len(docs))
	for n, d := range docs {
		ids[n] = d.ID
	}
	if err := i.driver.DeleteSource(ctx, source, ids...); err != nil {
		return nil, fmt.Errorf("pruning stale chunks of %s: %w", source, err)
	}

	return &FileReport{Path: path, Source: source, Chunks: len(docs)}, nil
}

// CollectPaths expands directories into the supported files beneath them,
// sorted. Plain file arguments are kept as given, supported or not, so the
// report can name unsupported files.
func CollectPaths(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}

		if !info.IsDir() {
			out = append(out, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsSupported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}

		slices.Sort(found)
		out = append(out, found...)
	}
	return out, nil
}
