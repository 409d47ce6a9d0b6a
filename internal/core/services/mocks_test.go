package services

import (
	"context"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
)

var (
	_ driven.EmbeddingService = (*mockEmbedder)(nil)
	_ driven.VectorIndex      = (*mockIndex)(nil)
	_ driven.DocumentStore    = (*mockDocStore)(nil)
	_ driven.CorpusCatalog    = (*mockCorpus)(nil)
)

// mockEmbedder is a mock implementation of driven.EmbeddingService.
// It returns a constant unit vector unless an error is injected.
type mockEmbedder struct {
	vector     []float32
	err        error
	embedCalls int
	batchSizes []int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.embedCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return len(m.vector) }

func (m *mockEmbedder) ModelName() string { return "mock" }

func (m *mockEmbedder) Ping(_ context.Context) error { return m.err }

func (m *mockEmbedder) Close() error { return nil }

// mockIndex is a mock implementation of driven.VectorIndex.
type mockIndex struct {
	hits      []driven.VectorHit
	entries   []driven.VectorEntry
	count     int
	searchErr error
	indexErr  error
	lastQuery driven.VectorQuery
}

func (m *mockIndex) Index(_ context.Context, entries []driven.VectorEntry) error {
	if m.indexErr != nil {
		return m.indexErr
	}
	m.entries = append(m.entries, entries...)
	m.count = len(m.entries)
	return nil
}

func (m *mockIndex) Search(_ context.Context, q driven.VectorQuery) ([]driven.VectorHit, error) {
	m.lastQuery = q
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

func (m *mockIndex) Count(_ context.Context) (int, error) {
	return m.count, nil
}

func (m *mockIndex) Close() error { return nil }

// mockDocStore is an in-memory driven.DocumentStore.
type mockDocStore struct {
	docs      map[domain.Handle]domain.Document
	persisted bool
	putErr    error
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{docs: make(map[domain.Handle]domain.Document)}
}

func (m *mockDocStore) Put(_ context.Context, handle domain.Handle, doc domain.Document) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.docs[handle] = doc
	return nil
}

func (m *mockDocStore) Get(_ context.Context, handle domain.Handle) (*domain.Document, error) {
	doc, ok := m.docs[handle]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockDocStore) Count(_ context.Context) (int, error) {
	return len(m.docs), nil
}

func (m *mockDocStore) Persist(_ context.Context) error {
	m.persisted = true
	return nil
}

func (m *mockDocStore) Load(_ context.Context) error { return nil }

func (m *mockDocStore) Close() error { return nil }

// mockCorpus is a mock implementation of driven.CorpusCatalog.
type mockCorpus struct {
	decisions []domain.Document
	runs      []driven.IndexRun
	listErr   error
	recordErr error
}

func (m *mockCorpus) SaveDecisions(_ context.Context, docs []domain.Document) error {
	m.decisions = append(m.decisions, docs...)
	return nil
}

func (m *mockCorpus) ListDecisions(_ context.Context, _ string) ([]domain.Document, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.decisions, nil
}

func (m *mockCorpus) CountDecisions(_ context.Context) (int, error) {
	return len(m.decisions), nil
}

func (m *mockCorpus) RecordIndexRun(_ context.Context, run driven.IndexRun) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockCorpus) LastIndexRun(_ context.Context) (*driven.IndexRun, error) {
	if len(m.runs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.runs[len(m.runs)-1], nil
}

func (m *mockCorpus) Close() error { return nil }
