package config

const (
	defaultOllamaTarget = "http://localhost:11434"
	defaultAPIListen    = ":8081"

	defaultClientAPITarget = "http://localhost:8081"

	defaultVectorProvider   = "sqlite"
	defaultVectorCollection = "my_rag_docs"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultLLMProvider  = "ollama"
	defaultLLMModel     = "llama3:8b"
	defaultLLMMaxTokens = 512

	defaultTopK           = 5
	defaultScoreThreshold = 0.3

	defaultChunkSize    = 1000
	defaultChunkOverlap = 200

	defaultWebSearchProvider = "auto"
	defaultWebSearchRate     = 1.0

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "docent.answers"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	threshold := defaultScoreThreshold
	overlap := uint(defaultChunkOverlap)

	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultOllamaTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider:  defaultLLMProvider,
			Target:    defaultOllamaTarget,
			Model:     defaultLLMModel,
			MaxTokens: defaultLLMMaxTokens,
		},
		Retrieval: RetrievalConfig{
			TopK:           defaultTopK,
			ScoreThreshold: &threshold,
		},
		Chunking: ChunkingConfig{
			Size:    defaultChunkSize,
			Overlap: &overlap,
		},
		WebSearch: WebSearchConfig{
			Provider:  defaultWebSearchProvider,
			RateLimit: defaultWebSearchRate,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
