package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent docent configuration stored as config.toml
// in the .docent/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	LLM         LLMConfig         `toml:"llm"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	WebSearch   WebSearchConfig   `toml:"websearch"`
	Events      EventsConfig      `toml:"events"`
}

// StorageConfig holds transcript storage settings. When both fields are empty
// transcripts are kept in memory for the lifetime of the process.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running
// docent API server (e.g. docent search). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// VectorStoreConfig holds vector store settings. Target is interpreted per
// provider: a file path for sqlite, a URL for chroma, host:port for qdrant and
// a connection string for pgvector.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// LLMConfig holds completion provider settings.
type LLMConfig struct {
	Provider  string `toml:"provider,omitempty"`
	Target    string `toml:"target,omitempty"`
	Model     string `toml:"model,omitempty"`
	MaxTokens uint   `toml:"max_tokens,omitempty"`
}

// RetrievalConfig holds retriever tuning. ScoreThreshold is a pointer so an
// explicit 0 survives default merging.
type RetrievalConfig struct {
	TopK           uint     `toml:"top_k,omitempty"`
	ScoreThreshold *float64 `toml:"score_threshold,omitempty"`
}

// Threshold returns the configured score threshold or the default.
func (r RetrievalConfig) Threshold() float64 {
	if r.ScoreThreshold == nil {
		return defaultScoreThreshold
	}
	return *r.ScoreThreshold
}

// ChunkingConfig holds the fixed character window used when splitting documents.
type ChunkingConfig struct {
	Size    uint  `toml:"size,omitempty"`
	Overlap *uint `toml:"overlap,omitempty"`
}

// OverlapOrDefault returns the configured overlap or the default.
func (c ChunkingConfig) OverlapOrDefault() uint {
	if c.Overlap == nil {
		return defaultChunkOverlap
	}
	return *c.Overlap
}

// WebSearchConfig holds web-fallback agent settings.
type WebSearchConfig struct {
	Provider  string  `toml:"provider,omitempty"`
	RateLimit float64 `toml:"rate_limit,omitempty"`
}

// EventsConfig holds answer event publishing settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.sqlite_path":     stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn":    stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),
	"api.listen":              stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target":       stringKey(func(c *Config) *string { return &c.Client.APITarget }),
	"vector_store.provider":   stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":     stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection": stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),
	"embedding.provider":      stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":        stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":         stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions":    uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"llm.provider":            stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.target":              stringKey(func(c *Config) *string { return &c.LLM.Target }),
	"llm.model":               stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.max_tokens":          uintKey("llm.max_tokens", func(c *Config) *uint { return &c.LLM.MaxTokens }),
	"retrieval.top_k":         uintKey("retrieval.top_k", func(c *Config) *uint { return &c.Retrieval.TopK }),
	"retrieval.score_threshold": {
		get: func(c *Config) string {
			return strconv.FormatFloat(c.Retrieval.Threshold(), 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for retrieval.score_threshold: %w", err)
			}
			if f < -1 || f > 1 {
				return fmt.Errorf("invalid value for retrieval.score_threshold: %v is outside [-1, 1]", f)
			}
			c.Retrieval.ScoreThreshold = &f
			return nil
		},
	},
	"chunking.size": uintKey("chunking.size", func(c *Config) *uint { return &c.Chunking.Size }),
	"chunking.overlap": {
		get: func(c *Config) string {
			return strconv.FormatUint(uint64(c.Chunking.OverlapOrDefault()), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for chunking.overlap: %w", err)
			}
			overlap := uint(n)
			c.Chunking.Overlap = &overlap
			return nil
		},
	},
	"websearch.provider": stringKey(func(c *Config) *string { return &c.WebSearch.Provider }),
	"websearch.rate_limit": {
		get: func(c *Config) string {
			if c.WebSearch.RateLimit == 0 {
				return ""
			}
			return strconv.FormatFloat(c.WebSearch.RateLimit, 'g', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for websearch.rate_limit: %w", err)
			}
			c.WebSearch.RateLimit = f
			return nil
		},
	},
	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
