package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input
	// (empty query, out-of-range k). Rejected immediately, never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates a query vector whose length
	// disagrees with the index's configured dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexEmpty indicates the vector index holds zero documents.
	// An empty corpus is a setup problem, distinct from a query that
	// simply has no matches.
	ErrIndexEmpty = errors.New("index is empty")

	// ErrIndexUnavailable indicates the vector index is not built or
	// not loaded. The service must refuse traffic rather than serve
	// degraded results silently.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable. Fatal at startup.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrComposerUnavailable indicates no answer composer is configured.
	// Retrieval still works; answer synthesis is disabled.
	ErrComposerUnavailable = errors.New("answer composer unavailable")

	// ErrCatalogUnavailable indicates the corpus catalog cannot be
	// opened or read.
	ErrCatalogUnavailable = errors.New("corpus catalog unavailable")
)
