package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// Constructed once at startup and shared: the underlying model load is
// amortized across the process lifetime, and implementations are free to
// serialize calls internally if the backend is not concurrency-safe.
//
// All returned vectors are L2-normalized, so the inner product of two
// embeddings equals their cosine similarity. Every index backend depends
// on this invariant.
//
// Implementations may include:
//   - Ollama (nomic-embed-text and other local models)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a normalized vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. Any failure
	// fails the whole batch; callers must not index partial results.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	// This must match the vector index configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	// Used at startup: an unreachable embedder is fatal, the service
	// refuses traffic rather than serving degraded results.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
