// Package provider builds llm.Completer clients by provider name.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/papercomputeco/docent/pkg/llm"
	"github.com/papercomputeco/docent/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/docent/pkg/llm/provider/ollama"
	"github.com/papercomputeco/docent/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	Anthropic = anthropic.Name
	OpenAI    = openai.Name
	Ollama    = ollama.Name
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Anthropic, OpenAI, Ollama}
}

// Config selects and configures a completion provider.
type Config struct {
	Provider string
	BaseURL  string
	Model    string

	// APIKey is required by the hosted providers and ignored by ollama.
	APIKey string
}

// NeedsAPIKey reports whether provider requires a credential.
func NeedsAPIKey(provider string) bool {
	p := strings.ToLower(provider)
	return p == Anthropic || p == OpenAI
}

// New creates a Completer for the configured provider.
// Returns an error if the provider type is not recognized.
func New(cfg Config) (llm.Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case Ollama, "":
		return ollama.New(ollama.Config{BaseURL: cfg.BaseURL, Model: cfg.Model}), nil
	case OpenAI:
		return openai.New(openai.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	case Anthropic:
		return anthropic.New(anthropic.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", cfg.Provider, SupportedProviders())
	}
}

// Factory returns an llm.Factory that builds the configured completer, for
// use with llm.NewHandle.
func Factory(cfg Config) llm.Factory {
	return func(context.Context) (llm.Completer, error) {
		return New(cfg)
	}
}
