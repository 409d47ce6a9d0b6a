package driving

import (
	"context"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

// RetrievalService provides retrieval over the indexed corpus.
type RetrievalService interface {
	// Search runs the raw retrieval path: embed, search, hydrate.
	// Scores are the backend's raw similarity values.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Query runs the full RAG path: Search plus softmax relevance
	// shares and a coverage verdict.
	Query(ctx context.Context, query string, opts domain.SearchOptions) (*domain.RelevanceBundle, error)

	// Backend names the vector index implementation in service.
	Backend() string
}

// IndexService builds the retrieval artifacts from the corpus catalog.
type IndexService interface {
	// Build runs a full batch rebuild: read corpus, chunk, embed,
	// index, persist. It returns the recorded run.
	Build(ctx context.Context) (*BuildReport, error)
}

// BuildReport summarizes a completed index build.
type BuildReport struct {
	// RunID is the uuid generation identifier.
	RunID string

	// Documents is the number of corpus decisions read.
	Documents int

	// Chunks is the number of chunks indexed.
	Chunks int

	// Skipped counts decisions with empty text (nothing to index).
	Skipped int
}
