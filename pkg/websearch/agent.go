package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/papercomputeco/docent/pkg/llm"
)

const (
	// ProviderAuto lets DefaultPolicy choose per query.
	ProviderAuto = "auto"

	// DefaultRateLimit is the per-capability request rate, per second.
	DefaultRateLimit = 1.0
)

// Config assembles an Agent.
type Config struct {
	// Provider is auto, serper, wikipedia, knowledge or news. Empty means
	// auto.
	Provider string

	SerperAPIKey string
	SerperURL    string
	WikipediaURL string

	// MediastackAPIKey enables the news capability.
	MediastackAPIKey string
	MediastackURL    string

	// Completer backs the knowledge capability. Without it that capability
	// is unavailable.
	Completer llm.Completer
	MaxTokens int

	// RateLimit is requests per second per capability. <= 0 disables limiting.
	RateLimit float64

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Agent dispatches a query to one capability chosen by its policy and
// returns the raw result. It adds no grounding and no retries.
type Agent struct {
	provider     string
	capabilities []Capability
	policy       Policy
	logger       *slog.Logger
}

// NewAgent fails with a ConfigurationError when the selected provider needs a
// credential that is absent. auto requires the web search key; news requires
// the Mediastack key.
func NewAgent(c Config) (*Agent, error) {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	if provider == "" {
		provider = ProviderAuto
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := DefaultPolicy
	if provider != ProviderAuto {
		kind, err := ParseKind(provider)
		if err != nil {
			return nil, err
		}
		policy = FixedPolicy(kind)
	}

	if requiresSerper(provider) && strings.TrimSpace(c.SerperAPIKey) == "" {
		return nil, &ConfigurationError{Capability: KindWebSearch, Variable: SerperKeyEnv}
	}
	if requiresNews(provider) && strings.TrimSpace(c.MediastackAPIKey) == "" {
		return nil, &ConfigurationError{Capability: KindNews, Variable: MediastackKeyEnv}
	}

	var caps []Capability
	if c.SerperAPIKey != "" {
		serper, err := NewSerper(SerperConfig{APIKey: c.SerperAPIKey, URL: c.SerperURL, HTTPClient: c.HTTPClient})
		if err != nil {
			return nil, err
		}
		caps = append(caps, serper)
	}
	if strings.TrimSpace(c.MediastackAPIKey) != "" {
		news, err := NewNews(NewsConfig{APIKey: c.MediastackAPIKey, URL: c.MediastackURL, HTTPClient: c.HTTPClient})
		if err != nil {
			return nil, err
		}
		caps = append(caps, news)
	}
	caps = append(caps, NewWikipedia(WikipediaConfig{URL: c.WikipediaURL, HTTPClient: c.HTTPClient}))
	if c.Completer != nil {
		caps = append(caps, NewKnowledge(c.Completer, c.MaxTokens))
	}

	for i, capability := range caps {
		caps[i] = withLimit(capability, c.RateLimit)
	}

	return &Agent{
		provider:     provider,
		capabilities: caps,
		policy:       policy,
		logger:       logger,
	}, nil
}

func requiresSerper(provider string) bool {
	return provider == ProviderAuto || provider == "serper" || provider == string(KindWebSearch) || provider == "web"
}

func requiresNews(provider string) bool {
	return provider == string(KindNews) || provider == "mediastack"
}

// Provider returns the configured provider name.
func (a *Agent) Provider() string { return a.provider }

// Capabilities lists the available capability kinds.
func (a *Agent) Capabilities() []Kind {
	kinds := make([]Kind, len(a.capabilities))
	for i, c := range a.capabilities {
		kinds[i] = c.Name()
	}
	return kinds
}

// Validate re-checks the credentials the provider needs.
func (a *Agent) Validate() error {
	if a == nil {
		return &ConfigurationError{Capability: KindWebSearch, Variable: SerperKeyEnv}
	}
	if requiresSerper(a.provider) && find(a.capabilities, KindWebSearch) == nil {
		return &ConfigurationError{Capability: KindWebSearch, Variable: SerperKeyEnv}
	}
	if requiresNews(a.provider) && find(a.capabilities, KindNews) == nil {
		return &ConfigurationError{Capability: KindNews, Variable: MediastackKeyEnv}
	}
	return nil
}

// Ask validates the configuration before any network call, then returns the
// selected capability's result.
func (a *Agent) Ask(ctx context.Context, query string) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}

	capability, err := a.policy(query, a.capabilities)
	if err != nil {
		return "", err
	}

	a.logger.Debug("web search dispatch", "capability", capability.Name(), "query", query)

	result, err := capability.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%s search: %w", capability.Name(), err)
	}
	return result, nil
}

type limited struct {
	Capability
	limiter *rate.Limiter
}

func withLimit(c Capability, perSecond float64) Capability {
	if perSecond <= 0 {
		return c
	}
	return &limited{Capability: c, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (l *limited) Search(ctx context.Context, query string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return l.Capability.Search(ctx, query)
}
