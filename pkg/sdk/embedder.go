package staysearch

import "context"

// Embedder converts text to vector embeddings. Every vector it returns
// must have the dimension configured with WithVectorDimensions.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
