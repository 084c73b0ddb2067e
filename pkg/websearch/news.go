package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMediastackURL is the Mediastack live news endpoint.
	DefaultMediastackURL = "http://api.mediastack.com/v1/news"

	// MediastackKeyEnv holds the Mediastack access key.
	MediastackKeyEnv = "MEDIASTACK_API_KEY"

	// DefaultNewsLimit is how many articles a news search returns.
	DefaultNewsLimit = 5

	noNewsText = "No news found."
)

// News returns the latest English articles matching a keyword from
// mediastack.com, newest first.
type News struct {
	apiKey string
	url    string
	limit  int
	client *http.Client
}

// NewsConfig configures a News capability.
type NewsConfig struct {
	APIKey string

	// URL overrides DefaultMediastackURL.
	URL string

	// Limit caps the articles returned. <= 0 means DefaultNewsLimit.
	Limit int

	HTTPClient *http.Client
}

// NewNews returns a ConfigurationError when the access key is missing.
func NewNews(c NewsConfig) (*News, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, &ConfigurationError{Capability: KindNews, Variable: MediastackKeyEnv}
	}

	endpoint := c.URL
	if endpoint == "" {
		endpoint = DefaultMediastackURL
	}
	limit := c.Limit
	if limit <= 0 {
		limit = DefaultNewsLimit
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &News{apiKey: c.APIKey, url: endpoint, limit: limit, client: client}, nil
}

func (n *News) Name() Kind { return KindNews }

func (n *News) Description() string {
	return "Fetch the latest news headlines for a topic."
}

type mediastackResponse struct {
	Data []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Source      string `json:"source"`
		PublishedAt string `json:"published_at"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Search lists the newest articles about query, one block per article with
// its title, description and link.
func (n *News) Search(ctx context.Context, query string) (string, error) {
	if n == nil || n.apiKey == "" {
		return "", &ConfigurationError{Capability: KindNews, Variable: MediastackKeyEnv}
	}

	params := url.Values{}
	params.Set("access_key", n.apiKey)
	params.Set("keywords", query)
	params.Set("languages", "en")
	params.Set("limit", strconv.Itoa(n.limit))
	params.Set("sort", "published_desc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.url+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating mediastack request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mediastack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("mediastack returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed mediastackResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding mediastack response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("mediastack error %s: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Data) == 0 {
		return noNewsText, nil
	}

	articles := parsed.Data
	if len(articles) > n.limit {
		articles = articles[:n.limit]
	}

	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		var b strings.Builder
		b.WriteString(strings.TrimSpace(a.Title))
		if d := strings.TrimSpace(a.Description); d != "" {
			b.WriteString("\n" + d)
		}
		if a.URL != "" {
			b.WriteString("\n" + a.URL)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n"), nil
}
