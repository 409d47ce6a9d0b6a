package cli

import (
	"context"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driving"
)

var (
	_ driving.RetrievalService = (*mockRetrieval)(nil)
	_ driving.IndexService     = (*mockIndexService)(nil)
	_ driven.AnswerComposer    = (*mockComposer)(nil)
	_ driven.CorpusCatalog     = (*mockCatalog)(nil)
	_ driven.ConfigStore       = (*mockConfigStore)(nil)
)

// mockRetrieval is a mock implementation of driving.RetrievalService.
type mockRetrieval struct {
	results     []domain.SearchResult
	bundle      *domain.RelevanceBundle
	err         error
	lastQuery   string
	lastOpts    domain.SearchOptions
	searchCalls int
}

func (m *mockRetrieval) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	m.searchCalls++
	return m.results, m.err
}

func (m *mockRetrieval) Query(
	_ context.Context, query string, opts domain.SearchOptions,
) (*domain.RelevanceBundle, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.bundle, m.err
}

func (m *mockRetrieval) Backend() string { return "flat" }

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	report *driving.BuildReport
	err    error
	called bool
}

func (m *mockIndexService) Build(_ context.Context) (*driving.BuildReport, error) {
	m.called = true
	return m.report, m.err
}

// mockComposer is a mock implementation of driven.AnswerComposer.
type mockComposer struct {
	answer driven.Answer
	err    error
	called bool
}

func (m *mockComposer) Compose(_ context.Context, _ domain.RelevanceBundle) (driven.Answer, error) {
	m.called = true
	return m.answer, m.err
}

func (m *mockComposer) ModelName() string { return "mock" }

func (m *mockComposer) Close() error { return nil }

// mockCatalog is a mock implementation of driven.CorpusCatalog.
type mockCatalog struct {
	saved []domain.Document
	count int
	run   *driven.IndexRun
	err   error
}

func (m *mockCatalog) SaveDecisions(_ context.Context, docs []domain.Document) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, docs...)
	return nil
}

func (m *mockCatalog) ListDecisions(_ context.Context, _ string) ([]domain.Document, error) {
	return m.saved, m.err
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

// mockConfigStore is an in-memory driven.ConfigStore.
type mockConfigStore struct {
	data map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if v, ok := m.data[key].(string); ok {
		return v
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	switch v := m.data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	v, _ := m.data[key].(bool)
	return v
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	v, _ := m.data[key].([]string)
	return v
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }

func (m *mockConfigStore) Load() error { return nil }

func (m *mockConfigStore) Path() string { return "/tmp/config.toml" }

// testDocument returns a fully annotated decision chunk.
func testDocument() domain.Document {
	return domain.Document{
		ID:      "stf-hc-101#0000",
		Text:    "A prisão preventiva exige fundamentação concreta.",
		Title:   domain.StrPtr("HC 101"),
		Court:   domain.StrPtr("STF"),
		Code:    domain.StrPtr("CPP"),
		Article: domain.StrPtr("312"),
	}
}

// testDocumentBare returns a chunk with no optional metadata.
func testDocumentBare(id string) domain.Document {
	return domain.Document{ID: id, Text: "Trecho."}
}

// resetFlags restores the flag-bound package vars to their defaults so
// one test's flags never leak into the next.
func resetFlags() {
	searchK = domain.DefaultK
	searchJSON = false
	searchCourt = ""
	searchCode = ""
	searchArticle = ""
	queryK = domain.DefaultK
	queryJSON = false
	queryNoAnswer = false
	flagConfigDir = ""
	flagVerbose = false
}

// setupTestServices injects mocks into the package service vars so
// commands never touch real storage. The returned cleanup restores
// the untouched state.
func setupTestServices() func() {
	retrieval := &mockRetrieval{
		results: []domain.SearchResult{
			{
				Document: domain.Document{
					ID:    "stf-hc-101#0000",
					Text:  "A prisão preventiva exige fundamentação concreta.",
					Court: domain.StrPtr("STF"),
					Title: domain.StrPtr("HC 101"),
				},
				Score: 0.91,
			},
		},
		bundle: &domain.RelevanceBundle{
			Query: "teste",
			Results: []domain.ScoredResult{
				{
					Document:  domain.Document{ID: "a", Text: "Trecho."},
					Score:     0.8,
					Relevance: 100,
				},
			},
			Coverage: domain.CoverageHigh,
		},
	}
	return injectServices(
		retrieval,
		&mockIndexService{report: &driving.BuildReport{RunID: "run-1", Documents: 2, Chunks: 8}},
		&mockComposer{answer: driven.Answer{Text: "Resposta [1].", Grounded: true}},
		&mockCatalog{count: 2},
	)
}

// injectServices swaps the package service vars for the given mocks.
func injectServices(
	retrieval driving.RetrievalService,
	indexer driving.IndexService,
	composer driven.AnswerComposer,
	catalog driven.CorpusCatalog,
) func() {
	prevRetrieval := retrievalService
	prevIndex := indexService
	prevComposer := answerComposer
	prevCatalog := corpusCatalog
	prevConfig := configStore

	retrievalService = retrieval
	indexService = indexer
	answerComposer = composer
	corpusCatalog = catalog
	configStore = newMockConfigStore()

	return func() {
		retrievalService = prevRetrieval
		indexService = prevIndex
		answerComposer = prevComposer
		corpusCatalog = prevCatalog
		configStore = prevConfig
	}
}
