package mcp

import (
	"context"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.SearchResult
	bundle  *domain.RelevanceBundle
	backend string
	lastK   int
	err     error
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	opts.Normalize()
	m.lastK = opts.K
	return m.results, m.err
}

func (m *mockRetrievalService) Query(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) (*domain.RelevanceBundle, error) {
	opts.Normalize()
	m.lastK = opts.K
	return m.bundle, m.err
}

func (m *mockRetrievalService) Backend() string {
	if m.backend == "" {
		return "flat"
	}
	return m.backend
}

// mockComposer is a mock implementation of driven.AnswerComposer.
type mockComposer struct {
	answer driven.Answer
	called bool
	err    error
}

func (m *mockComposer) Compose(_ context.Context, _ domain.RelevanceBundle) (driven.Answer, error) {
	m.called = true
	return m.answer, m.err
}

func (m *mockComposer) ModelName() string { return "mock" }

func (m *mockComposer) Close() error { return nil }

// mockCatalog is a mock implementation of driven.CorpusCatalog.
type mockCatalog struct {
	count int
	run   *driven.IndexRun
	err   error
}

func (m *mockCatalog) SaveDecisions(_ context.Context, _ []domain.Document) error {
	return m.err
}

func (m *mockCatalog) ListDecisions(_ context.Context, _ string) ([]domain.Document, error) {
	return nil, m.err
}

func (m *mockCatalog) CountDecisions(_ context.Context) (int, error) {
	return m.count, m.err
}

func (m *mockCatalog) RecordIndexRun(_ context.Context, _ driven.IndexRun) error {
	return m.err
}

func (m *mockCatalog) LastIndexRun(_ context.Context) (*driven.IndexRun, error) {
	if m.run == nil {
		return nil, domain.ErrNotFound
	}
	return m.run, m.err
}

func (m *mockCatalog) Close() error { return nil }
