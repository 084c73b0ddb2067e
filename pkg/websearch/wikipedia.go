package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/docent/pkg/utils"
)

const (
	// DefaultWikipediaURL is the English MediaWiki action API.
	DefaultWikipediaURL = "https://en.wikipedia.org/w/api.php"

	defaultWikipediaPages    = 3
	defaultWikipediaMaxChars = 4000

	noWikipediaResultText = "No good Wikipedia Search Result was found"
)

// WikipediaConfig configures the encyclopedia capability.
type WikipediaConfig struct {
	// URL overrides DefaultWikipediaURL.
	URL string

	// Pages is how many search hits are summarized. Defaults to 3.
	Pages int

	// MaxChars caps the rendered result. Defaults to 4000.
	MaxChars int

	HTTPClient *http.Client
}

// Wikipedia searches Wikipedia and returns the intro extracts of the top pages.
type Wikipedia struct {
	url      string
	pages    int
	maxChars int
	client   *http.Client
}

func NewWikipedia(c WikipediaConfig) *Wikipedia {
	w := &Wikipedia{
		url:      c.URL,
		pages:    c.Pages,
		maxChars: c.MaxChars,
		client:   c.HTTPClient,
	}
	if w.url == "" {
		w.url = DefaultWikipediaURL
	}
	if w.pages <= 0 {
		w.pages = defaultWikipediaPages
	}
	if w.maxChars <= 0 {
		w.maxChars = defaultWikipediaMaxChars
	}
	if w.client == nil {
		w.client = &http.Client{Timeout: 30 * time.Second}
	}
	return w
}

func (w *Wikipedia) Name() Kind { return KindEncyclopedia }

func (w *Wikipedia) Description() string {
	return "Look up people, places, concepts and definitions on Wikipedia."
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiExtractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Search renders "Page: <title>\nSummary: <extract>" blocks for the top hits.
func (w *Wikipedia) Search(ctx context.Context, query string) (string, error) {
	var search wikiSearchResponse
	if err := w.get(ctx, url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(w.pages)},
		"format":   {"json"},
	}, &search); err != nil {
		return "", err
	}

	var blocks []string
	for _, hit := range search.Query.Search {
		summary, err := w.extract(ctx, hit.Title)
		if err != nil {
			return "", err
		}
		if summary == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Page: %s\nSummary: %s", hit.Title, summary))
	}

	if len(blocks) == 0 {
		return noWikipediaResultText, nil
	}
	return utils.Truncate(strings.Join(blocks, "\n\n"), w.maxChars), nil
}

func (w *Wikipedia) extract(ctx context.Context, title string) (string, error) {
	var resp wikiExtractResponse
	if err := w.get(ctx, url.Values{
		"action":      {"query"},
		"prop":        {"extracts"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"titles":      {title},
		"format":      {"json"},
	}, &resp); err != nil {
		return "", err
	}

	for _, page := range resp.Query.Pages {
		if page.Extract != "" {
			return strings.TrimSpace(page.Extract), nil
		}
	}
	return "", nil
}

func (w *Wikipedia) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating wikipedia request: %w", err)
	}
	req.Header.Set("User-Agent", "docent (https://github.com/papercomputeco/docent)")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikipedia returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding wikipedia response: %w", err)
	}
	return nil
}
