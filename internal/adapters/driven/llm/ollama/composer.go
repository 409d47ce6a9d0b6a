// Package ollama provides the answer composer using a local Ollama
// model. Composition is gated on the retrieval coverage verdict: a
// bundle classified low or none never reaches the model, the composer
// reports the gap and offers refinements instead.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
)

// Ensure Composer implements the interface.
var _ driven.AnswerComposer = (*Composer)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama composer.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the generation model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Composer generates grounded answers using Ollama.
type Composer struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewComposer creates a new Ollama answer composer.
func NewComposer(cfg Config) *Composer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Composer{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// answerPrompt instructs the model to answer strictly from the cited
// excerpts, in the language of the corpus.
const answerPrompt = `Você é um assistente jurídico. Responda à pergunta usando SOMENTE os
trechos de decisões judiciais abaixo. Cite os trechos pelo número entre
colchetes, por exemplo [1]. Se os trechos não bastarem para responder,
diga isso explicitamente. Não invente jurisprudência.

Pergunta: %s

Trechos:
%s

Resposta:`

// Compose produces an answer for the bundle. Low and none coverage
// short-circuit to a missing-information notice without a model call.
func (c *Composer) Compose(ctx context.Context, bundle domain.RelevanceBundle) (driven.Answer, error) {
	switch bundle.Coverage {
	case domain.CoverageNone, domain.CoverageLow:
		return ungroundedAnswer(bundle), nil
	}

	prompt := fmt.Sprintf(answerPrompt, bundle.Query, formatExcerpts(bundle.Results))
	text, err := c.generate(ctx, prompt)
	if err != nil {
		return driven.Answer{}, fmt.Errorf("compose answer: %w", err)
	}

	return driven.Answer{
		Text:     strings.TrimSpace(text),
		Grounded: true,
	}, nil
}

// ModelName returns the name of the generation model being used.
func (c *Composer) ModelName() string {
	return c.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (c *Composer) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (c *Composer) Close() error {
	return nil
}

// generate calls the Ollama completion endpoint.
func (c *Composer) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: &options{
			Temperature: 0.2,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return genResp.Response, nil
}

// formatExcerpts renders the results as numbered excerpts for the
// prompt, with whatever citation metadata each document carries.
func formatExcerpts(results []domain.ScoredResult) string {
	var b strings.Builder
	for i := range results {
		doc := results[i].Document
		fmt.Fprintf(&b, "[%d]", i+1)
		if v := domain.StrVal(doc.Court); v != "" {
			fmt.Fprintf(&b, " %s", v)
		}
		if v := domain.StrVal(doc.Title); v != "" {
			fmt.Fprintf(&b, " %s", v)
		}
		if v := domain.StrVal(doc.Article); v != "" {
			fmt.Fprintf(&b, ", art. %s", v)
		}
		if v := domain.StrVal(doc.Code); v != "" {
			fmt.Fprintf(&b, " do %s", v)
		}
		fmt.Fprintf(&b, "\n%s\n\n", doc.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ungroundedAnswer describes the retrieval gap and suggests query
// refinements without involving the model.
func ungroundedAnswer(bundle domain.RelevanceBundle) driven.Answer {
	var text string
	if bundle.Coverage == domain.CoverageNone {
		text = "Nenhuma decisão relevante foi encontrada no acervo para esta consulta."
	} else {
		text = "As decisões encontradas têm baixa relevância para esta consulta e não bastam para fundamentar uma resposta."
	}

	suggestions := []string{
		"Reformule a consulta com termos jurídicos mais específicos.",
		"Inclua o número do artigo e o código aplicável, por exemplo \"art. 312 do CPP\".",
	}
	if len(bundle.Results) > 0 {
		if court := domain.StrVal(bundle.Results[0].Document.Court); court != "" {
			suggestions = append(suggestions,
				fmt.Sprintf("Restrinja a busca ao tribunal %s, que concentra os resultados mais próximos.", court))
		}
	}

	return driven.Answer{
		Text:        text,
		Grounded:    false,
		Suggestions: suggestions,
	}
}
