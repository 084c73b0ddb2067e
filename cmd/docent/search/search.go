// Package searchcmder provides the search command for raw retrieval over the
// ingested documents through a running docent API server.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/api"
	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	"github.com/papercomputeco/docent/pkg/cliui"
	"github.com/papercomputeco/docent/pkg/config"
)

const previewWidth = 100

var rankStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)

type searchCommander struct {
	topK      int
	threshold float64
	output    string
	quiet     bool
}

const searchLongDesc string = `Search the ingested documents via the docent API.

Returns the chunks closest to the query with their similarity scores, without
asking the language model. Requires a running docent API server
("docent serve"). The server's retrieval settings apply unless --top-k or
--threshold are given.

Use --quiet to print only the distinct sources, one per line.

Examples:
  docent search "refund policy"
  docent search "shipping times" --top-k 10 --threshold 0.2
  docent search "refund policy" --output yaml
  docent search "refund policy" --api-target http://localhost:8081`

const searchShortDesc string = "Search the ingested documents"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	config.AddFlags(cmd, config.ClientFlags)
	cmd.Flags().IntVarP(&cmder.topK, "top-k", "k", 0, "Number of results to return (default: server setting)")
	cmd.Flags().Float64VarP(&cmder.threshold, "threshold", "t", 0, "Minimum similarity score (default: server setting)")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", cliui.OutputPretty, "Output format (pretty, json, yaml)")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Print only the distinct sources, one per line")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command, query string) error {
	output, err := cliui.ParseOutput(c.output)
	if err != nil {
		return err
	}

	env, err := bootstrap.Load(cmd, config.ClientFlags)
	if err != nil {
		return err
	}

	params := Params{Query: query}
	if cmd.Flags().Changed("top-k") {
		params.TopK = c.topK
	}
	if cmd.Flags().Changed("threshold") {
		params.Threshold = &c.threshold
	}

	env.Logger.Debug("searching", "api_target", env.Config.Client.APITarget, "query", query)

	resp, err := SearchAPI(cmd.Context(), env.Config.Client.APITarget, params)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch {
	case c.quiet:
		for _, source := range resp.Sources {
			fmt.Fprintln(w, source)
		}
		return nil
	case output != cliui.OutputPretty:
		return cliui.Encode(w, output, resp)
	}

	if resp.Count == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	lipgloss.Fprintf(w, "\n%s %s\n\n",
		cliui.HeaderStyle.Render("Search results for:"),
		cliui.NameStyle.Render(strconv.Quote(resp.Query)),
	)
	for i, result := range resp.Results {
		printResult(w, i+1, result)
	}
	return nil
}

func printResult(w io.Writer, rank int, r api.SearchResult) {
	lipgloss.Fprintf(w, "  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		cliui.ScoreStyle.Render(fmt.Sprintf("score: %.4f", r.Score)),
		cliui.SourceStyle.Render(fmt.Sprintf("%s (chunk %d)", r.Source, r.Position)),
	)
	lipgloss.Fprintf(w, "  %s\n\n", cliui.ValueStyle.Render(cliui.Preview(r.Text, previewWidth)))
}

// Params are the query parameters of GET /v1/search. Zero values leave the
// server defaults in place.
type Params struct {
	Query     string
	TopK      int
	Threshold *float64
}

// SearchAPI calls the docent search endpoint and returns the parsed response.
func SearchAPI(ctx context.Context, apiTarget string, p Params) (*api.SearchResponse, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/v1/search"

	q := searchURL.Query()
	q.Set("query", p.Query)
	if p.TopK > 0 {
		q.Set("top_k", strconv.Itoa(p.TopK))
	}
	if p.Threshold != nil {
		q.Set("threshold", strconv.FormatFloat(*p.Threshold, 'f', -1, 64))
	}
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to docent API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output api.SearchResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &output, nil
}
