// Package websearch answers queries that are not grounded in local documents
// by delegating to one of a closed set of external capabilities.
package websearch

import (
	"context"
	"fmt"
)

// Kind names a capability.
type Kind string

const (
	KindWebSearch    Kind = "web_search"
	KindEncyclopedia Kind = "encyclopedia"
	KindKnowledge    Kind = "knowledge"
	KindNews         Kind = "news"
)

// Kinds lists every capability kind.
var Kinds = []Kind{KindWebSearch, KindEncyclopedia, KindKnowledge, KindNews}

// Capability is a single external lookup tool.
type Capability interface {
	Name() Kind
	Description() string

	// Search returns the capability's free-text result for query.
	Search(ctx context.Context, query string) (string, error)
}

// ParseKind maps provider names to capability kinds.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "serper", string(KindWebSearch), "web":
		return KindWebSearch, nil
	case "wikipedia", "wiki", string(KindEncyclopedia):
		return KindEncyclopedia, nil
	case string(KindKnowledge), "llm":
		return KindKnowledge, nil
	case string(KindNews), "mediastack":
		return KindNews, nil
	default:
		return "", fmt.Errorf("unknown web search provider: %q", s)
	}
}
