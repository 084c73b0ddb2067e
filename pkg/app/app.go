// Package app assembles the docent components described by a config.Config:
// vector store, embedder, shared completion model, transcript store, answer
// publisher, web agent, ingestor and the question pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/docent/pkg/config"
	"github.com/papercomputeco/docent/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/docent/pkg/embeddings/utils"
	"github.com/papercomputeco/docent/pkg/eventstream"
	"github.com/papercomputeco/docent/pkg/eventstream/kafka"
	"github.com/papercomputeco/docent/pkg/eventstream/nop"
	"github.com/papercomputeco/docent/pkg/ingest"
	"github.com/papercomputeco/docent/pkg/llm"
	"github.com/papercomputeco/docent/pkg/llm/provider"
	"github.com/papercomputeco/docent/pkg/rag"
	"github.com/papercomputeco/docent/pkg/session"
	"github.com/papercomputeco/docent/pkg/session/inmemory"
	"github.com/papercomputeco/docent/pkg/session/postgres"
	"github.com/papercomputeco/docent/pkg/session/sqlite"
	"github.com/papercomputeco/docent/pkg/sqlitepath"
	"github.com/papercomputeco/docent/pkg/vector"
	vectorutils "github.com/papercomputeco/docent/pkg/vector/utils"
	"github.com/papercomputeco/docent/pkg/websearch"
)

const (
	EventsNop   = "nop"
	EventsKafka = "kafka"
)

// KeyResolver looks up provider API keys. credentials.Manager and
// credentials.EnvResolver satisfy it.
type KeyResolver interface {
	Resolve(provider string) (string, error)
}

// Options tune New beyond what config.Config carries.
type Options struct {
	// ConfigDir overrides the .docent/ directory used for default paths.
	ConfigDir string

	Keys   KeyResolver
	Logger *slog.Logger

	// Embedder, Vector, Completer and Sessions replace the configured
	// component when set. The App does not close injected components.
	Embedder  embeddings.Embedder
	Vector    vector.Driver
	Completer llm.Completer
	Sessions  session.Driver
	Publisher eventstream.Publisher
}

// App holds every long-lived component of a docent process.
type App struct {
	Config *config.Config

	Embedder  embeddings.Embedder
	Vector    vector.Driver
	LLM       *llm.Handle
	Sessions  session.Driver
	Publisher eventstream.Publisher

	Ingestor   *ingest.Ingestor
	Retriever  *rag.Retriever
	Summarizer *rag.Summarizer
	Pipeline   *rag.Pipeline

	// Web is nil when the web agent could not be configured. WebErr then
	// holds the ConfigurationError every web question is answered with.
	Web    *websearch.Agent
	WebErr error

	logger  *slog.Logger
	closers []func() error
}

// New builds an App. On failure every component created so far is closed.
func New(ctx context.Context, cfg *config.Config, o Options) (*App, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	keys := o.Keys
	if keys == nil {
		keys = noKeys{}
	}

	a := &App{Config: cfg, logger: logger}
	if err := a.build(ctx, o, keys); err != nil {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("closing partially built app", "error", cerr)
		}
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, o Options, keys KeyResolver) error {
	var err error
	if a.Embedder, err = a.newEmbedder(o, keys); err != nil {
		return err
	}
	if a.Vector, err = a.newVectorDriver(ctx, o); err != nil {
		return err
	}
	a.LLM, err = a.newHandle(o, keys)
	if err != nil {
		return err
	}
	if a.Sessions, err = a.newSessions(ctx, o); err != nil {
		return err
	}
	if a.Publisher, err = a.newPublisher(o); err != nil {
		return err
	}

	if a.Ingestor, err = a.newIngestor(); err != nil {
		return err
	}

	completer := a.LLM.Completer()
	maxTokens := int(a.Config.LLM.MaxTokens)

	a.Retriever = rag.NewRetriever(a.Embedder, a.Vector,
		rag.WithTopK(int(a.Config.Retrieval.TopK)),
		rag.WithThreshold(float32(a.Config.Retrieval.Threshold())),
		rag.WithRetrieverLogger(a.logger),
	)
	a.Summarizer = rag.NewSummarizer(completer, maxTokens, a.logger)

	serperKey, err := keys.Resolve("serper")
	if err != nil {
		return fmt.Errorf("resolving serper key: %w", err)
	}
	mediastackKey, err := keys.Resolve("mediastack")
	if err != nil {
		return fmt.Errorf("resolving mediastack key: %w", err)
	}
	a.Web, a.WebErr = websearch.NewAgent(websearch.Config{
		Provider:         a.Config.WebSearch.Provider,
		SerperAPIKey:     serperKey,
		MediastackAPIKey: mediastackKey,
		Completer:        completer,
		MaxTokens:        maxTokens,
		RateLimit:        a.Config.WebSearch.RateLimit,
		Logger:           a.logger,
	})
	if a.WebErr != nil {
		if !errors.Is(a.WebErr, websearch.ErrConfiguration) {
			return a.WebErr
		}
		a.logger.Warn("web search unavailable", "error", a.WebErr)
	}

	a.Pipeline = rag.NewPipeline(rag.PipelineConfig{
		Retriever:  a.Retriever,
		Composer:   rag.NewComposer(completer, maxTokens, a.logger),
		Summarizer: a.Summarizer,
		Web:        a.webSearcher(),
		Sessions:   a.Sessions,
		Publisher:  a.Publisher,
		Logger:     a.logger,
	})
	return nil
}

// Close releases owned components in reverse creation order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) own(closer func() error) {
	a.closers = append(a.closers, closer)
}

func (a *App) webSearcher() rag.WebSearcher {
	if a.Web != nil {
		return a.Web
	}
	return unavailableWeb{err: a.WebErr}
}

func (a *App) newEmbedder(o Options, keys KeyResolver) (embeddings.Embedder, error) {
	if o.Embedder != nil {
		return o.Embedder, nil
	}

	c := a.Config.Embedding
	apiKey, err := providerKey(keys, c.Provider)
	if err != nil {
		return nil, err
	}

	e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.Provider,
		TargetURL:    c.Target,
		Model:        c.Model,
		Dimensions:   c.Dimensions,
		APIKey:       apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	a.own(e.Close)
	return e, nil
}

func (a *App) newVectorDriver(ctx context.Context, o Options) (vector.Driver, error) {
	if o.Vector != nil {
		return o.Vector, nil
	}

	c := a.Config.VectorStore
	target := c.Target
	if c.Provider == vectorutils.ProviderSQLite {
		var err error
		if target, err = sqlitepath.ResolveSQLitePath(target, o.ConfigDir); err != nil {
			return nil, err
		}
	}

	d, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: c.Provider,
		Target:       target,
		Collection:   c.Collection,
		Dimensions:   a.Config.Embedding.Dimensions,
		Logger:       a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	a.own(d.Close)
	return d, nil
}

func (a *App) newHandle(o Options, keys KeyResolver) (*llm.Handle, error) {
	var h *llm.Handle
	if o.Completer != nil {
		completer := o.Completer
		h = llm.NewHandle(func(context.Context) (llm.Completer, error) {
			return completer, nil
		})
	} else {
		c := a.Config.LLM
		apiKey, err := providerKey(keys, c.Provider)
		if err != nil {
			return nil, err
		}
		h = llm.NewHandle(provider.Factory(provider.Config{
			Provider: c.Provider,
			BaseURL:  c.Target,
			Model:    c.Model,
			APIKey:   apiKey,
		}))
	}
	a.own(h.Close)
	return h, nil
}

func (a *App) newSessions(ctx context.Context, o Options) (session.Driver, error) {
	if o.Sessions != nil {
		return o.Sessions, nil
	}

	var (
		d   session.Driver
		err error
	)
	switch s := a.Config.Storage; {
	case s.PostgresDSN != "":
		d, err = postgres.NewDriver(ctx, s.PostgresDSN)
		a.logger.Info("using postgres transcript storage")
	case s.SQLitePath != "":
		d, err = sqlite.NewDriver(ctx, s.SQLitePath)
		a.logger.Info("using sqlite transcript storage", "path", s.SQLitePath)
	default:
		d = inmemory.NewDriver()
		a.logger.Info("using in-memory transcript storage")
	}
	if err != nil {
		return nil, fmt.Errorf("creating transcript store: %w", err)
	}
	a.own(d.Close)
	return d, nil
}

func (a *App) newPublisher(o Options) (eventstream.Publisher, error) {
	if o.Publisher != nil {
		return o.Publisher, nil
	}

	var p eventstream.Publisher
	switch c := a.Config.Events; strings.ToLower(c.Provider) {
	case "", EventsNop:
		p = nop.NewPublisher()
	case EventsKafka:
		kp, err := kafka.NewPublisher(kafka.Config{
			Brokers: splitList(c.Brokers),
			Topic:   c.Topic,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		p = kp
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", c.Provider)
	}
	a.own(p.Close)
	return p, nil
}

func (a *App) newIngestor() (*ingest.Ingestor, error) {
	c := a.Config.Chunking
	chunker, err := ingest.NewChunker(int(c.Size), int(c.OverlapOrDefault()))
	if err != nil {
		return nil, err
	}
	return ingest.New(ingest.Config{
		Embedder: a.Embedder,
		Driver:   a.Vector,
		Chunker:  chunker,
		Logger:   a.logger,
	})
}

// providerKey resolves the API key for hosted providers and returns "" for
// local ones.
func providerKey(keys KeyResolver, name string) (string, error) {
	if !provider.NeedsAPIKey(name) {
		return "", nil
	}
	key, err := keys.Resolve(strings.ToLower(name))
	if err != nil {
		return "", fmt.Errorf("resolving %s key: %w", name, err)
	}
	return key, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type noKeys struct{}

func (noKeys) Resolve(string) (string, error) { return "", nil }

// unavailableWeb answers every web question with the configuration error
// that kept the agent from being built, before any network access.
type unavailableWeb struct {
	err error
}

func (u unavailableWeb) Ask(context.Context, string) (string, error) {
	if u.err == nil {
		return "", errors.New("web search is not configured")
	}
	return "", u.err
}
