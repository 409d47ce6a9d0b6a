package driven

import (
	"context"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

// VectorIndex stores document vectors under opaque handles and answers
// top-K nearest-neighbour queries by inner product. Implementations are
// swappable behind this interface: an in-process exact flat index and a
// distributed BM25 + k-NN engine satisfy the same contract, and backend
// query syntax never leaks to callers.
//
// Concurrent Search calls against a built index are safe. Index is a
// batch operation: implementations persist atomically (write-to-temp
// then rename) so readers never observe a partially written index.
type VectorIndex interface {
	// Index upserts the entries. An entry whose handle is already
	// present replaces the prior vector. The batch either fully
	// succeeds or fully fails.
	Index(ctx context.Context, entries []VectorEntry) error

	// Search returns up to q.K hits ordered by descending raw score.
	// An empty index yields an empty slice, not an error. A query
	// vector of the wrong dimensionality fails fast with
	// domain.ErrDimensionMismatch.
	Search(ctx context.Context, q VectorQuery) ([]VectorHit, error)

	// Count returns the number of distinct indexed handles.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorEntry is one (handle, vector) pair to index. Text is carried for
// backends that maintain a keyword index alongside the vectors; the flat
// in-process index ignores it.
type VectorEntry struct {
	Handle domain.Handle
	Vector []float32
	Text   string
}

// VectorQuery is a backend-neutral search request.
type VectorQuery struct {
	// Vector is the embedded query, L2-normalized.
	Vector []float32

	// Text is the raw query text, used by hybrid backends for the
	// keyword leg. Ignored by pure vector backends.
	Text string

	// K is the maximum number of hits to return.
	K int
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// Handle identifies the matched document.
	Handle domain.Handle

	// Score is the raw similarity value: inner product over unit
	// vectors, practically 0..1 for natural-language text.
	Score float64
}
