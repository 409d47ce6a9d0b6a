package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arandu-labs/jurisrag/internal/adapters/driven/docstore/parquet"
	"github.com/arandu-labs/jurisrag/internal/adapters/driven/vector/flat"
	"github.com/arandu-labs/jurisrag/internal/chunker"
	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

// keywordEmbedder produces deterministic synthetic embeddings: each
// known term contributes a fixed axis and the sum is L2-normalized, so
// texts sharing terms land close together.
type keywordEmbedder struct{}

var keywordAxes = map[string]int{
	"preventiva":    0,
	"fundamentação": 1,
	"alimentos":     2,
	"tributário":    3,
}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 4)
	lower := strings.ToLower(text)
	for term, axis := range keywordAxes {
		if strings.Contains(lower, term) {
			v[axis] = 1
		}
	}
	return domain.NormalizeVector(v), nil
}

func (e keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		vec, err := e.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (keywordEmbedder) Dimensions() int { return 4 }

func (keywordEmbedder) ModelName() string { return "keyword-synthetic" }

func (keywordEmbedder) Ping(_ context.Context) error { return nil }

func (keywordEmbedder) Close() error { return nil }

// TestPipeline_PrisaoPreventiva drives the real build and query path:
// catalog decisions through the chunker, flat index and parquet store,
// then retrieval with relevance shares and a coverage verdict.
func TestPipeline_PrisaoPreventiva(t *testing.T) {
	ctx := context.Background()
	embedder := keywordEmbedder{}

	index, err := flat.New(t.TempDir(), embedder.Dimensions())
	require.NoError(t, err)
	docs, err := parquet.New(t.TempDir())
	require.NoError(t, err)

	catalog := &mockCorpus{
		decisions: []domain.Document{
			{
				ID:      "stf-hc-101",
				Text:    "A prisão preventiva exige fundamentação concreta do periculum libertatis.",
				Court:   domain.StrPtr("STF"),
				Code:    domain.StrPtr("CPP"),
				Article: domain.StrPtr("312"),
			},
			{
				ID:    "stj-hc-202",
				Text:  "A manutenção da preventiva reclama fundamentação idônea e atual.",
				Court: domain.StrPtr("STJ"),
			},
			{
				ID:    "trf4-hc-303",
				Text:  "Revogada a preventiva por ausência de fundamentação do decreto.",
				Court: domain.StrPtr("TRF4"),
			},
			{
				ID:    "stj-resp-404",
				Text:  "A pensão de alimentos é devida desde a citação.",
				Court: domain.StrPtr("STJ"),
			},
		},
	}

	indexer := NewIndexer(catalog, chunker.New(chunker.Config{}), embedder, index, docs, "flat")
	report, err := indexer.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Documents)
	assert.Equal(t, 4, report.Chunks)

	retrieval := NewRetrieval(embedder, index, docs, domain.DefaultCoveragePolicy(), "flat")

	bundle, err := retrieval.Query(ctx, "requisitos da prisão preventiva e fundamentação, art. 312", domain.SearchOptions{K: 3})
	require.NoError(t, err)

	// The three preventiva decisions outrank the alimentos one.
	require.Len(t, bundle.Results, 3)
	for _, r := range bundle.Results {
		assert.NotEqual(t, "stj-resp-404#0000", r.Document.ID)
		assert.Greater(t, r.Score, 0.7)
	}
	assert.Equal(t, domain.CoverageHigh, bundle.Coverage)

	sum := 0.0
	for _, r := range bundle.Results {
		sum += r.Relevance
	}
	assert.InDelta(t, 100, sum, 1e-6)

	// Metadata survived hydration.
	top := bundle.Results[0].Document
	assert.NotEmpty(t, domain.StrVal(top.Court))

	// An off-corpus topic still returns hits but the zero scores keep
	// coverage at low, which gates the composer downstream.
	miss, err := retrieval.Query(ctx, "tributário", domain.SearchOptions{K: 3})
	require.NoError(t, err)
	assert.Equal(t, domain.CoverageLow, miss.Coverage)
	for _, r := range miss.Results {
		assert.InDelta(t, 0, r.Score, 1e-6)
	}

	// Rebuilding with the same corpus is idempotent.
	_, err = indexer.Build(ctx)
	require.NoError(t, err)
	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
