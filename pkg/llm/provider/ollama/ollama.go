// Package ollama implements llm.Completer on Ollama's generate API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/docent/pkg/llm"
)

const (
	// Name is the provider name used in configuration and errors.
	Name = "ollama"

	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3:8b"
)

// Config holds configuration for the Ollama completer.
type Config struct {
	BaseURL string
	Model   string

	// Timeout bounds a single completion. Local models can be slow on first
	// load, so the default is generous.
	Timeout time.Duration
}

// Client calls /api/generate with streaming disabled.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// New creates an Ollama completer.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete sends prompt to the model. MaxTokens maps to num_predict.
func (c *Client) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}
	if opts.MaxTokens > 0 || opts.Temperature != nil {
		reqBody.Options = &generateOption{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		}
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", c.fail(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return "", c.fail(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.fail(fmt.Errorf("ollama request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.fail(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.fail(fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body)))
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", c.fail(fmt.Errorf("unmarshal response: %w", err))
	}
	if result.Error != "" {
		return "", c.fail(errors.New(result.Error))
	}

	return result.Response, nil
}

func (c *Client) fail(err error) error {
	return llm.NewModelCallError(Name, c.model, err)
}

var _ llm.Completer = (*Client)(nil)
