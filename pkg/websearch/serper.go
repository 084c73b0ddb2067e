package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultSerperURL is the Serper Google search endpoint.
	DefaultSerperURL = "https://google.serper.dev/search"

	// SerperKeyEnv holds the Serper API key.
	SerperKeyEnv = "SERPER_API_KEY"

	noSnippetText = "No snippet available."
	noResultsText = "No results found."
)

// Serper queries Google through serper.dev.
type Serper struct {
	apiKey string
	url    string
	client *http.Client
}

// SerperConfig configures a Serper capability.
type SerperConfig struct {
	APIKey string

	// URL overrides DefaultSerperURL.
	URL string

	HTTPClient *http.Client
}

// NewSerper returns a ConfigurationError when the API key is missing.
func NewSerper(c SerperConfig) (*Serper, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, &ConfigurationError{Capability: KindWebSearch, Variable: SerperKeyEnv}
	}

	url := c.URL
	if url == "" {
		url = DefaultSerperURL
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Serper{apiKey: c.APIKey, url: url, client: client}, nil
}

func (s *Serper) Name() Kind { return KindWebSearch }

func (s *Serper) Description() string {
	return "Search the web with Google for current events and factual lookups."
}

type serperRequest struct {
	Q string `json:"q"`
}

type serperResponse struct {
	AnswerBox *struct {
		Answer string `json:"answer"`
	} `json:"answerBox"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search returns the answer box when Google has one, otherwise the first
// organic snippet.
func (s *Serper) Search(ctx context.Context, query string) (string, error) {
	if s == nil || s.apiKey == "" {
		return "", &ConfigurationError{Capability: KindWebSearch, Variable: SerperKeyEnv}
	}

	body, err := json.Marshal(serperRequest{Q: query})
	if err != nil {
		return "", fmt.Errorf("marshaling serper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating serper request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("serper request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("serper returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding serper response: %w", err)
	}

	if parsed.AnswerBox != nil && parsed.AnswerBox.Answer != "" {
		return parsed.AnswerBox.Answer, nil
	}
	if len(parsed.Organic) > 0 {
		if parsed.Organic[0].Snippet == "" {
			return noSnippetText, nil
		}
		return parsed.Organic[0].Snippet, nil
	}
	return noResultsText, nil
}
