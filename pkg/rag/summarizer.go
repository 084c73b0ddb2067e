package rag

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/papercomputeco/docent/pkg/llm"
)

const (
	// NoSummaryText is the single bullet returned when the reply has none.
	NoSummaryText = "No summary available."

	// SummaryFailedText is the single bullet returned when the model call fails.
	SummaryFailedText = "Summary failed."
)

const summarizePrompt = `You are an assistant that summarizes factual answers into short, crisp bullet points.

Please convert the following answer into 3 to 5 concise bullet points. Each point must start with a dash (-), and only include essential facts. Avoid repetition.

Answer:
%s

Bullet Point Summary:
- `

var bulletPattern = regexp.MustCompile(`-\s+(.*)`)

// Summarizer compresses an answer into a few bullets.
type Summarizer struct {
	completer llm.Completer
	maxTokens int
	logger    *slog.Logger
}

// NewSummarizer creates a Summarizer. maxTokens <= 0 leaves the provider default.
func NewSummarizer(completer llm.Completer, maxTokens int, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{completer: completer, maxTokens: maxTokens, logger: logger}
}

// Summarize never fails. A reply with no bullets yields [NoSummaryText] and a
// model fault yields [SummaryFailedText].
func (s *Summarizer) Summarize(ctx context.Context, answer string) []string {
	reply, err := s.completer.Complete(ctx, SummaryPrompt(answer), llm.Options{MaxTokens: s.maxTokens})
	if err != nil {
		s.logger.Warn("summary generation failed", "error", err)
		return []string{SummaryFailedText}
	}

	points := ParseBullets(reply)
	if len(points) == 0 {
		s.logger.Debug("summary reply had no bullets", "reply", reply)
		return []string{NoSummaryText}
	}
	return points
}

// SummaryPrompt renders the summarization prompt for answer.
func SummaryPrompt(answer string) string {
	return strings.Replace(summarizePrompt, "%s", answer, 1)
}

// ParseBullets extracts every dash-marked item from reply, in order.
func ParseBullets(reply string) []string {
	var points []string
	for _, m := range bulletPattern.FindAllStringSubmatch(reply, -1) {
		if p := strings.TrimSpace(m[1]); p != "" {
			points = append(points, p)
		}
	}
	return points
}
