package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driving"
	"github.com/arandu-labs/jurisrag/internal/logger"
)

// Ensure Retrieval implements the interface.
var _ driving.RetrievalService = (*Retrieval)(nil)

// Retrieval orchestrates the query path: embed the query, search the
// vector index, hydrate handles into documents, and score the batch.
type Retrieval struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	docs     driven.DocumentStore
	policy   domain.CoveragePolicy
	backend  string
}

// NewRetrieval creates the retrieval service. backend is the display
// name of the vector index implementation in service.
func NewRetrieval(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	docs driven.DocumentStore,
	policy domain.CoveragePolicy,
	backend string,
) *Retrieval {
	return &Retrieval{
		embedder: embedder,
		index:    index,
		docs:     docs,
		policy:   policy,
		backend:  backend,
	}
}

// Backend names the vector index implementation in service.
func (r *Retrieval) Backend() string {
	return r.backend
}

// Search runs the raw retrieval path and returns results with the
// backend's raw similarity scores.
func (r *Retrieval) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}
	if !opts.Normalize() {
		return nil, fmt.Errorf("k=%d outside 1..%d: %w", opts.K, domain.MaxK, domain.ErrInvalidInput)
	}

	if r.index == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	count, err := r.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("index count: %w", err)
	}
	if count == 0 {
		// A bare corpus is a setup problem, distinct from a query
		// that has no matches.
		return nil, domain.ErrIndexEmpty
	}

	logger.Debug("Generating query embedding...")
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	// Request extra hits to survive metadata filtering and the odd
	// dangling handle.
	internalK := opts.K
	if len(opts.Filters) > 0 {
		internalK = opts.K * 3
		logger.Debug("Metadata filters: %v", opts.Filters)
	} else {
		internalK = opts.K + 2
	}

	hits, err := r.index.Search(ctx, driven.VectorQuery{
		Vector: vector,
		Text:   query,
		K:      internalK,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Raw hits: %d", len(hits))

	results := r.hydrate(ctx, hits, opts.Filters)
	if len(results) > opts.K {
		results = results[:opts.K]
	}
	logger.Info("Final results: %d", len(results))

	return results, nil
}

// Query runs the full RAG path: Search plus softmax relevance shares
// and a coverage verdict.
func (r *Retrieval) Query(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.RelevanceBundle, error) {
	results, err := r.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(results))
	for i := range results {
		scores[i] = results[i].Score
	}

	shares := domain.RelevanceShares(scores)
	scored := make([]domain.ScoredResult, len(results))
	for i := range results {
		scored[i] = domain.ScoredResult{
			Document:  results[i].Document,
			Score:     results[i].Score,
			Relevance: shares[i],
		}
	}

	coverage := r.policy.Classify(len(scored), domain.AverageScore(scores))
	logger.Info("Coverage: %s (%d results, avg %.3f)", coverage, len(scored), domain.AverageScore(scores))

	return &domain.RelevanceBundle{
		Query:    query,
		Results:  scored,
		Coverage: coverage,
	}, nil
}

// hydrate joins hits against the document store, dropping hits whose
// handle has no metadata entry. A dangling handle means the index and
// metadata table are out of sync - degraded but recoverable, so it is
// logged and skipped, never surfaced.
func (r *Retrieval) hydrate(
	ctx context.Context, hits []driven.VectorHit, filters map[string]string,
) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		doc, err := r.docs.Get(ctx, hit.Handle)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Dangling handle %d: no metadata entry, skipping", hit.Handle)
				continue
			}
			logger.Warn("Metadata lookup for handle %d failed: %v, skipping", hit.Handle, err)
			continue
		}
		if !matchesFilters(doc, filters) {
			continue
		}
		results = append(results, domain.SearchResult{
			Document: *doc,
			Score:    hit.Score,
		})
	}
	return results
}

// matchesFilters reports whether the document satisfies every filter.
// Well-known keys match the typed fields; anything else matches Meta.
func matchesFilters(doc *domain.Document, filters map[string]string) bool {
	for key, want := range filters {
		var got string
		switch key {
		case "court":
			got = domain.StrVal(doc.Court)
		case "code":
			got = domain.StrVal(doc.Code)
		case "article":
			got = domain.StrVal(doc.Article)
		case "date":
			got = domain.StrVal(doc.Date)
		case "title":
			got = domain.StrVal(doc.Title)
		default:
			got = doc.Meta[key]
		}
		if !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}
