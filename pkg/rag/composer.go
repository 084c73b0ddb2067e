package rag

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/papercomputeco/docent/pkg/llm"
)

// NoAnswerText stands in for an answer the model could not produce.
const NoAnswerText = "No answer found."

// NoSourcesText is rendered when an answer has no attributed sources.
const NoSourcesText = "No sources found."

// DefaultMaxTokens caps composed answers.
const DefaultMaxTokens = 512

const composePrompt = `Use the following pieces of context to answer the question at the end.
Answer only from the context. If the context does not contain the answer, just say that you don't know, don't try to make up an answer.
After the answer, write a final line starting with "SOURCES:" that lists the sources you used, separated by commas.

%s
Question: %s
Helpful Answer:`

var sourcesLine = regexp.MustCompile(`(?im)^\s*\**sources?\**\s*:\s*(.*)$`)

// Answer is a composed response with the distinct sources it rests on.
type Answer struct {
	Text    string
	Sources []string

	// Err holds the model fault when Text is NoAnswerText because the call
	// failed. It is for logging only.
	Err error
}

// Format renders the answer block shown to users.
func (a *Answer) Format() string {
	sources := NoSourcesText
	if len(a.Sources) > 0 {
		lines := make([]string, len(a.Sources))
		for i, s := range a.Sources {
			lines[i] = "- " + s
		}
		sources = strings.Join(lines, "\n")
	}
	return fmt.Sprintf("📘 **Answer**\n%s\n\n📚 **Sources:**\n%s", a.Text, sources)
}

// Composer asks the language model to answer from retrieved context.
type Composer struct {
	completer llm.Completer
	maxTokens int
	logger    *slog.Logger
}

// NewComposer creates a Composer. maxTokens <= 0 selects DefaultMaxTokens.
func NewComposer(completer llm.Completer, maxTokens int, logger *slog.Logger) *Composer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{completer: completer, maxTokens: maxTokens, logger: logger}
}

// Compose always returns a well-formed Answer. The model is consulted even
// for an empty retrieval. A model fault yields NoAnswerText with no sources.
func (c *Composer) Compose(ctx context.Context, query string, retrieval *Retrieval) *Answer {
	prompt := BuildPrompt(query, retrieval)

	reply, err := c.completer.Complete(ctx, prompt, llm.Options{MaxTokens: c.maxTokens})
	if err != nil {
		c.logger.Warn("answer composition failed", "error", err)
		return &Answer{Text: NoAnswerText, Sources: []string{}, Err: err}
	}

	text, cited := splitSources(reply)
	if text == "" {
		text = NoAnswerText
	}

	return &Answer{
		Text:    text,
		Sources: attribute(cited, retrieval),
	}
}

// BuildPrompt renders the grounding prompt, chunks in retrieval order.
func BuildPrompt(query string, retrieval *Retrieval) string {
	var b strings.Builder
	if !retrieval.Empty() {
		for _, res := range retrieval.Results {
			fmt.Fprintf(&b, "Content: %s\nSource: %s\n\n", res.Text, res.Source)
		}
	}
	return fmt.Sprintf(composePrompt, b.String(), query)
}

// splitSources separates the trailing SOURCES line from the answer text.
func splitSources(reply string) (string, []string) {
	locs := sourcesLine.FindAllStringSubmatchIndex(reply, -1)
	if len(locs) == 0 {
		return strings.TrimSpace(reply), nil
	}

	last := locs[len(locs)-1]
	text := strings.TrimSpace(reply[:last[0]])
	list := reply[last[2]:last[3]]

	var cited []string
	for _, s := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ';' }) {
		s = strings.Trim(strings.TrimSpace(s), "`*\"'[]")
		if s != "" {
			cited = append(cited, s)
		}
	}
	return text, cited
}

// attribute keeps the cited sources that were actually retrieved. When the
// model cites none of them, every retrieved source is attributed.
func attribute(cited []string, retrieval *Retrieval) []string {
	retrieved := retrieval.Sources()
	if len(retrieved) == 0 {
		return []string{}
	}

	var kept []string
	for _, s := range cited {
		if slices.Contains(retrieved, s) {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return retrieved
	}

	slices.Sort(kept)
	return slices.Compact(kept)
}
