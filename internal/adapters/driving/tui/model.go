// Package tui implements the interactive terminal search interface.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driving"
)

// Model is the Bubble Tea model for the search interface. Each Enter
// runs the full retrieval path and the arrow keys walk the scored
// excerpts one at a time.
type Model struct {
	service   driving.RetrievalService
	ctx       context.Context
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.ScoredResult
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates the TUI model.
func New(ctx context.Context, service driving.RetrievalService) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Digite a pergunta e pressione Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		ctx:      ctx,
		input:    ti,
		viewport: vp,
		status:   fmt.Sprintf("Backend: %s. Digite para pesquisar.", service.Backend()),
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		// header + status + query box + spacer
		reserved := 2 + qh + 1
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = maxInt(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if q := strings.TrimSpace(m.input.Value()); q != "" {
				m = m.runQuery(q)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) runQuery(q string) Model {
	bundle, err := m.service.Query(m.ctx, q, domain.SearchOptions{})
	if err != nil {
		m.status = "Erro: " + err.Error()
		m.results = nil
		return m
	}
	m.status = fmt.Sprintf("Cobertura %s para %q", bundle.Coverage, q)
	m.results = bundle.Results
	m.cursor = 0
	m.lastQuery = q
	return m
}

// View renders the layout: header, result pane, query box, status.
func (m Model) View() string {
	if !m.ready {
		return "Carregando..."
	}
	header := headerStyle.Render("JurisRAG")
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "Nenhum resultado ainda."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Trecho %d/%d  %s  relevância %.0f%%  score %.3f",
		m.cursor+1, len(m.results), headingFor(r.Document), r.Relevance, r.Score)
	body := highlightBestSentence(r.Document.Text, m.lastQuery)
	return titleStyle.Render(title) + "\n\n" + body
}

// headingFor formats the citation line for an excerpt.
func headingFor(doc domain.Document) string {
	parts := make([]string, 0, 3)
	if court := domain.StrVal(doc.Court); court != "" {
		parts = append(parts, court)
	}
	if title := domain.StrVal(doc.Title); title != "" {
		parts = append(parts, title)
	}
	if article := domain.StrVal(doc.Article); article != "" {
		ref := "art. " + article
		if code := domain.StrVal(doc.Code); code != "" {
			ref += " do " + code
		}
		parts = append(parts, ref)
	}
	if len(parts) == 0 {
		return doc.ID
	}
	return strings.Join(parts, " ")
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence highlights the sentence sharing the most terms
// with the query, so the hit's anchor is visible without reading the
// whole excerpt.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
