package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

// mockRetrieval is a mock implementation of driving.RetrievalService.
type mockRetrieval struct {
	bundle    *domain.RelevanceBundle
	err       error
	lastQuery string
}

func (m *mockRetrieval) Search(
	_ context.Context, _ string, _ domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return nil, m.err
}

func (m *mockRetrieval) Query(
	_ context.Context, query string, _ domain.SearchOptions,
) (*domain.RelevanceBundle, error) {
	m.lastQuery = query
	return m.bundle, m.err
}

func (m *mockRetrieval) Backend() string { return "flat" }

func testBundle() *domain.RelevanceBundle {
	return &domain.RelevanceBundle{
		Query: "prisão preventiva",
		Results: []domain.ScoredResult{
			{
				Document: domain.Document{
					ID:      "stf-hc-101#0000",
					Text:    "A prisão preventiva exige fundamentação concreta. Outro período.",
					Court:   domain.StrPtr("STF"),
					Title:   domain.StrPtr("HC 101"),
					Article: domain.StrPtr("312"),
					Code:    domain.StrPtr("CPP"),
				},
				Score:     0.9,
				Relevance: 70,
			},
			{
				Document:  domain.Document{ID: "b", Text: "Trecho secundário."},
				Score:     0.6,
				Relevance: 30,
			},
		},
		Coverage: domain.CoverageHigh,
	}
}

func typeAndEnter(m Model, query string) Model {
	m.input.SetValue(query)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model)
}

func TestModel_QueryUpdatesResults(t *testing.T) {
	service := &mockRetrieval{bundle: testBundle()}
	m := New(context.Background(), service)

	m = typeAndEnter(m, "prisão preventiva")

	assert.Equal(t, "prisão preventiva", service.lastQuery)
	require.Len(t, m.results, 2)
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.status, "Cobertura high")
}

func TestModel_QueryErrorSetsStatus(t *testing.T) {
	service := &mockRetrieval{err: errors.New("embedder offline")}
	m := New(context.Background(), service)

	m = typeAndEnter(m, "teste")

	assert.Contains(t, m.status, "embedder offline")
	assert.Empty(t, m.results)
}

func TestModel_CursorWrapsAround(t *testing.T) {
	m := New(context.Background(), &mockRetrieval{bundle: testBundle()})
	m = typeAndEnter(m, "teste")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	assert.Equal(t, 1, m.cursor)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	assert.Equal(t, 0, m.cursor)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	assert.Equal(t, 1, m.cursor)
}

func TestModel_RenderCurrentResult(t *testing.T) {
	m := New(context.Background(), &mockRetrieval{bundle: testBundle()})
	m = typeAndEnter(m, "fundamentação concreta")

	out := m.renderCurrentResult()
	assert.Contains(t, out, "Trecho 1/2")
	assert.Contains(t, out, "STF HC 101 art. 312 do CPP")
	assert.Contains(t, out, "fundamentação concreta")
}

func TestModel_RenderWithoutResults(t *testing.T) {
	m := New(context.Background(), &mockRetrieval{})
	assert.Equal(t, "Nenhum resultado ainda.", m.renderCurrentResult())
}

func TestHeadingFor_FallsBackToID(t *testing.T) {
	assert.Equal(t, "doc-1", headingFor(domain.Document{ID: "doc-1"}))
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Primeira frase sem relação. A prisão preventiva exige fundamentação. Última frase."
	out := highlightBestSentence(text, "prisão preventiva")
	assert.Contains(t, out, "prisão preventiva exige fundamentação")
	// All sentences survive the highlighting pass.
	assert.Contains(t, out, "Primeira frase sem relação.")
	assert.Contains(t, out, "Última frase.")
}

func TestHighlightBestSentence_EmptyQuery(t *testing.T) {
	text := "Uma frase. Outra frase."
	out := highlightBestSentence(text, "")
	assert.Contains(t, out, "Uma frase.")
	assert.Contains(t, out, "Outra frase.")
}

func TestTokenOverlapScore_CountsDistinctTerms(t *testing.T) {
	q := toTokenSet("prisão preventiva prisão")
	assert.Equal(t, 2, tokenOverlapScore(q, "A prisão preventiva e a prisão temporária."))
	assert.Equal(t, 0, tokenOverlapScore(q, "Nada relacionado."))
}
