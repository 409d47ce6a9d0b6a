package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arandu-labs/jurisrag/internal/chunker"
	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

func newTestIndexer(catalog *mockCorpus, embedder *mockEmbedder, index *mockIndex, docs *mockDocStore) *Indexer {
	return NewIndexer(catalog, chunker.New(chunker.Config{}), embedder, index, docs, "flat")
}

func decision(id, text string) domain.Document {
	return domain.Document{
		ID:    id,
		Text:  text,
		Court: domain.StrPtr("STF"),
	}
}

func TestIndexer_Build_FullPipeline(t *testing.T) {
	catalog := &mockCorpus{
		decisions: []domain.Document{
			decision("stf-hc-101", "A prisão preventiva exige fundamentação concreta."),
			decision("stf-hc-102", "O habeas corpus é cabível contra ilegalidade."),
		},
	}
	embedder := &mockEmbedder{vector: unitVector()}
	index := &mockIndex{}
	docs := newMockDocStore()

	report, err := newTestIndexer(catalog, embedder, index, docs).Build(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 2, report.Chunks)
	assert.Zero(t, report.Skipped)

	// Short decisions become one chunk each, keyed by derived handle.
	require.Len(t, index.entries, 2)
	assert.Equal(t, domain.HandleFor("stf-hc-101#0000"), index.entries[0].Handle)
	assert.Contains(t, index.entries[0].Text, "prisão preventiva")

	// Metadata was stored per chunk and persisted.
	count, _ := docs.Count(context.Background())
	assert.Equal(t, 2, count)
	assert.True(t, docs.persisted)

	// The run was recorded against the active backend.
	require.Len(t, catalog.runs, 1)
	assert.Equal(t, report.RunID, catalog.runs[0].ID)
	assert.Equal(t, "flat", catalog.runs[0].Backend)
	assert.Equal(t, 2, catalog.runs[0].Chunks)
	assert.NotEmpty(t, catalog.runs[0].FinishedAt)
}

func TestIndexer_Build_SplitsLongDecision(t *testing.T) {
	longText := strings.Repeat("A prisão preventiva exige fundamentação concreta. ", 200)
	catalog := &mockCorpus{decisions: []domain.Document{decision("stf-hc-101", longText)}}
	index := &mockIndex{}

	report, err := newTestIndexer(catalog, &mockEmbedder{vector: unitVector()}, index, newMockDocStore()).
		Build(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Documents)
	assert.Greater(t, report.Chunks, 1)
	assert.Len(t, index.entries, report.Chunks)
}

func TestIndexer_Build_SkipsEmptyDecisions(t *testing.T) {
	catalog := &mockCorpus{
		decisions: []domain.Document{
			decision("stf-hc-101", "Texto indexável."),
			decision("stf-hc-102", "   "),
		},
	}
	index := &mockIndex{}

	report, err := newTestIndexer(catalog, &mockEmbedder{vector: unitVector()}, index, newMockDocStore()).
		Build(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 1, report.Skipped)
}

func TestIndexer_Build_NilCatalog(t *testing.T) {
	ix := NewIndexer(nil, chunker.New(chunker.Config{}), &mockEmbedder{vector: unitVector()}, &mockIndex{}, newMockDocStore(), "flat")

	_, err := ix.Build(context.Background())

	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestIndexer_Build_EmptyCorpus(t *testing.T) {
	_, err := newTestIndexer(&mockCorpus{}, &mockEmbedder{vector: unitVector()}, &mockIndex{}, newMockDocStore()).
		Build(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndexer_Build_AllDecisionsEmpty(t *testing.T) {
	catalog := &mockCorpus{decisions: []domain.Document{decision("a", "")}}

	_, err := newTestIndexer(catalog, &mockEmbedder{vector: unitVector()}, &mockIndex{}, newMockDocStore()).
		Build(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIndexer_Build_EmbedderFailureIndexesNothing(t *testing.T) {
	catalog := &mockCorpus{decisions: []domain.Document{decision("a", "Texto.")}}
	index := &mockIndex{}
	docs := newMockDocStore()

	_, err := newTestIndexer(catalog, &mockEmbedder{err: assert.AnError}, index, docs).
		Build(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed corpus")
	assert.Empty(t, index.entries)
	count, _ := docs.Count(context.Background())
	assert.Zero(t, count)
}

func TestIndexer_Build_BatchesEmbedding(t *testing.T) {
	decisions := make([]domain.Document, 70)
	for i := range decisions {
		decisions[i] = decision(strings.Repeat("d", i+1), "Texto da decisão.")
	}
	embedder := &mockEmbedder{vector: unitVector()}

	_, err := newTestIndexer(&mockCorpus{decisions: decisions}, embedder, &mockIndex{}, newMockDocStore()).
		Build(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int{64, 6}, embedder.batchSizes)
}

func TestIndexer_Build_RecordFailureIsNonFatal(t *testing.T) {
	catalog := &mockCorpus{
		decisions: []domain.Document{decision("a", "Texto.")},
		recordErr: assert.AnError,
	}

	report, err := newTestIndexer(catalog, &mockEmbedder{vector: unitVector()}, &mockIndex{}, newMockDocStore()).
		Build(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Chunks)
}
