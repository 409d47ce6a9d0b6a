package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
)

func unitVector() []float32 { return []float32{1, 0, 0, 0} }

// populatedStore returns a doc store holding n annotated chunks with
// handles derived from their IDs, plus the handles in insertion order.
func populatedStore(t *testing.T, ids ...string) (*mockDocStore, []domain.Handle) {
	t.Helper()
	store := newMockDocStore()
	handles := make([]domain.Handle, len(ids))
	for i, id := range ids {
		handles[i] = domain.HandleFor(id)
		doc := domain.Document{
			ID:    id,
			Text:  "Trecho da decisão " + id + ".",
			Court: domain.StrPtr("STF"),
		}
		require.NoError(t, store.Put(context.Background(), handles[i], doc))
	}
	return store, handles
}

func newTestRetrieval(embedder *mockEmbedder, index *mockIndex, docs *mockDocStore) *Retrieval {
	return NewRetrieval(embedder, index, docs, domain.DefaultCoveragePolicy(), "flat")
}

func TestRetrieval_Search_EmptyQuery(t *testing.T) {
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, &mockIndex{count: 1}, newMockDocStore())

	_, err := svc.Search(context.Background(), "   ", domain.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieval_Search_KOutOfRange(t *testing.T) {
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, &mockIndex{count: 1}, newMockDocStore())

	_, err := svc.Search(context.Background(), "teste", domain.SearchOptions{K: domain.MaxK + 1})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieval_Search_EmptyIndex(t *testing.T) {
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, &mockIndex{count: 0}, newMockDocStore())

	_, err := svc.Search(context.Background(), "teste", domain.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrIndexEmpty)
}

func TestRetrieval_Search_EmbedderFailure(t *testing.T) {
	embedder := &mockEmbedder{err: assert.AnError}
	svc := newTestRetrieval(embedder, &mockIndex{count: 1}, newMockDocStore())

	_, err := svc.Search(context.Background(), "teste", domain.SearchOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed query")
}

func TestRetrieval_Search_HydratesAndOrders(t *testing.T) {
	store, handles := populatedStore(t, "stf-1#0000", "stf-2#0000")
	index := &mockIndex{
		count: 2,
		hits: []driven.VectorHit{
			{Handle: handles[1], Score: 0.9},
			{Handle: handles[0], Score: 0.7},
		},
	}
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, index, store)

	results, err := svc.Search(context.Background(), "teste", domain.SearchOptions{K: 5})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "stf-2#0000", results[0].Document.ID)
	assert.Equal(t, 0.9, results[0].Score)
	assert.Equal(t, "stf-1#0000", results[1].Document.ID)
}

func TestRetrieval_Search_SkipsDanglingHandles(t *testing.T) {
	store, handles := populatedStore(t, "stf-1#0000")
	index := &mockIndex{
		count: 2,
		hits: []driven.VectorHit{
			{Handle: domain.HandleFor("missing#0000"), Score: 0.95},
			{Handle: handles[0], Score: 0.8},
		},
	}
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, index, store)

	results, err := svc.Search(context.Background(), "teste", domain.SearchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "stf-1#0000", results[0].Document.ID)
}

func TestRetrieval_Search_TruncatesToK(t *testing.T) {
	store, handles := populatedStore(t, "a#0000", "b#0000", "c#0000")
	index := &mockIndex{
		count: 3,
		hits: []driven.VectorHit{
			{Handle: handles[0], Score: 0.9},
			{Handle: handles[1], Score: 0.8},
			{Handle: handles[2], Score: 0.7},
		},
	}
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, index, store)

	results, err := svc.Search(context.Background(), "teste", domain.SearchOptions{K: 2})

	require.NoError(t, err)
	assert.Len(t, results, 2)
	// The index was asked for extra hits to survive dangling handles.
	assert.Greater(t, index.lastQuery.K, 2)
}

func TestRetrieval_Search_AppliesFilters(t *testing.T) {
	store := newMockDocStore()
	ctx := context.Background()
	hSTF := domain.HandleFor("stf#0000")
	hTJSP := domain.HandleFor("tjsp#0000")
	require.NoError(t, store.Put(ctx, hSTF, domain.Document{
		ID: "stf#0000", Text: "x", Court: domain.StrPtr("STF"),
	}))
	require.NoError(t, store.Put(ctx, hTJSP, domain.Document{
		ID: "tjsp#0000", Text: "y", Court: domain.StrPtr("TJSP"),
		Meta: map[string]string{"relator": "Des. Silva"},
	}))
	index := &mockIndex{
		count: 2,
		hits: []driven.VectorHit{
			{Handle: hSTF, Score: 0.9},
			{Handle: hTJSP, Score: 0.8},
		},
	}
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, index, store)

	results, err := svc.Search(ctx, "teste", domain.SearchOptions{
		Filters: map[string]string{"court": "tjsp"},
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tjsp#0000", results[0].Document.ID)

	results, err = svc.Search(ctx, "teste", domain.SearchOptions{
		Filters: map[string]string{"relator": "Des. Silva"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tjsp#0000", results[0].Document.ID)
}

func TestRetrieval_Search_PassesQueryTextToIndex(t *testing.T) {
	store, handles := populatedStore(t, "a#0000")
	index := &mockIndex{count: 1, hits: []driven.VectorHit{{Handle: handles[0], Score: 0.9}}}
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, index, store)

	_, err := svc.Search(context.Background(), "art. 312 do CPP", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, "art. 312 do CPP", index.lastQuery.Text)
	assert.Equal(t, unitVector(), index.lastQuery.Vector)
}

func TestRetrieval_Query_SharesSumToFull(t *testing.T) {
	store, handles := populatedStore(t, "a#0000", "b#0000", "c#0000")
	index := &mockIndex{
		count: 3,
		hits: []driven.VectorHit{
			{Handle: handles[0], Score: 0.9},
			{Handle: handles[1], Score: 0.8},
			{Handle: handles[2], Score: 0.7},
		},
	}
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, index, store)

	bundle, err := svc.Query(context.Background(), "teste", domain.SearchOptions{})

	require.NoError(t, err)
	require.Len(t, bundle.Results, 3)

	sum := 0.0
	for _, r := range bundle.Results {
		sum += r.Relevance
	}
	assert.InDelta(t, 100, sum, 1e-6)
	// Shares are monotone in the underlying scores.
	assert.Greater(t, bundle.Results[0].Relevance, bundle.Results[1].Relevance)
	assert.Greater(t, bundle.Results[1].Relevance, bundle.Results[2].Relevance)
}

func TestRetrieval_Query_CoverageVerdict(t *testing.T) {
	store, handles := populatedStore(t, "a#0000", "b#0000", "c#0000")
	strong := &mockIndex{
		count: 3,
		hits: []driven.VectorHit{
			{Handle: handles[0], Score: 0.92},
			{Handle: handles[1], Score: 0.90},
			{Handle: handles[2], Score: 0.88},
		},
	}
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, strong, store)

	bundle, err := svc.Query(context.Background(), "teste", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.CoverageHigh, bundle.Coverage)

	weak := &mockIndex{count: 3}
	svc = newTestRetrieval(&mockEmbedder{vector: unitVector()}, weak, store)

	bundle, err = svc.Query(context.Background(), "teste", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, bundle.Results)
	assert.Equal(t, domain.CoverageNone, bundle.Coverage)
}

func TestRetrieval_Query_PropagatesSearchError(t *testing.T) {
	svc := newTestRetrieval(&mockEmbedder{vector: unitVector()}, &mockIndex{count: 0}, newMockDocStore())

	_, err := svc.Query(context.Background(), "teste", domain.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrIndexEmpty)
}

func TestRetrieval_Backend(t *testing.T) {
	svc := NewRetrieval(nil, nil, nil, domain.DefaultCoveragePolicy(), "opensearch")
	assert.Equal(t, "opensearch", svc.Backend())
}
