package websearch

import (
	"errors"
	"regexp"
)

// ErrNoCapability is returned by a Policy that finds nothing to dispatch to.
var ErrNoCapability = errors.New("no web search capability available")

// Policy selects the capability that handles query.
type Policy func(query string, available []Capability) (Capability, error)

var (
	encyclopedic = regexp.MustCompile(`(?i)^\s*((who|what)\s+(is|was|are|were)\b|define\b|definition\s+of\b)`)
	newsworthy   = regexp.MustCompile(`(?i)\b(news|headlines?)\b`)
)

// DefaultPolicy routes news requests to the news feed, definitional
// questions to the encyclopedia and everything else to web search, falling
// back to model knowledge.
func DefaultPolicy(query string, available []Capability) (Capability, error) {
	order := []Kind{KindWebSearch, KindEncyclopedia, KindKnowledge}
	switch {
	case newsworthy.MatchString(query):
		order = []Kind{KindNews, KindWebSearch, KindEncyclopedia, KindKnowledge}
	case encyclopedic.MatchString(query):
		order = []Kind{KindEncyclopedia, KindWebSearch, KindKnowledge}
	}

	for _, kind := range order {
		if c := find(available, kind); c != nil {
			return c, nil
		}
	}
	return nil, ErrNoCapability
}

// FixedPolicy always selects kind.
func FixedPolicy(kind Kind) Policy {
	return func(_ string, available []Capability) (Capability, error) {
		if c := find(available, kind); c != nil {
			return c, nil
		}
		return nil, ErrNoCapability
	}
}

func find(available []Capability, kind Kind) Capability {
	for _, c := range available {
		if c.Name() == kind {
			return c
		}
	}
	return nil
}
