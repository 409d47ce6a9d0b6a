package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query   string            `json:"query" jsonschema:"the legal question or search text"`
	K       int               `json:"k,omitempty" jsonschema:"maximum number of results to return (default 5, max 20)"`
	Filters map[string]string `json:"filters,omitempty" jsonschema:"metadata filters, e.g. court=STF or article=312"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []ResultOutput `json:"results"`
	Count   int            `json:"count"`
	Backend string         `json:"backend"`
}

// ResultOutput represents a single retrieved chunk.
type ResultOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	Court      string  `json:"court,omitempty"`
	Code       string  `json:"code,omitempty"`
	Article    string  `json:"article,omitempty"`
	Date       string  `json:"date,omitempty"`
	Score      float64 `json:"score"`
	Relevance  float64 `json:"relevance,omitempty"`
	Text       string  `json:"text"`
}

// RAGInput is the input schema for the rag_query tool.
type RAGInput struct {
	Query   string            `json:"query" jsonschema:"the legal question to answer"`
	K       int               `json:"k,omitempty" jsonschema:"maximum number of supporting excerpts (default 5, max 20)"`
	Filters map[string]string `json:"filters,omitempty" jsonschema:"metadata filters, e.g. court=STF or article=312"`
}

// RAGOutput is the output schema for the rag_query tool.
type RAGOutput struct {
	Coverage    string         `json:"coverage"`
	Results     []ResultOutput `json:"results"`
	Answer      string         `json:"answer,omitempty"`
	Grounded    bool           `json:"grounded"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search indexed court decisions by semantic similarity",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rag_query",
		Description: "Answer a legal question from indexed court decisions with relevance scoring and a coverage verdict",
	}, s.handleRAGQuery)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{K: input.K, Filters: input.Filters}
	results, err := s.ports.Retrieval.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]ResultOutput, len(results)),
		Count:   len(results),
		Backend: s.ports.Retrieval.Backend(),
	}
	for i := range results {
		output.Results[i] = toResultOutput(results[i].Document, results[i].Score, 0)
	}

	return nil, output, nil
}

// handleRAGQuery handles the rag_query tool invocation.
func (s *Server) handleRAGQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RAGInput,
) (*mcp.CallToolResult, RAGOutput, error) {
	opts := domain.SearchOptions{K: input.K, Filters: input.Filters}
	bundle, err := s.ports.Retrieval.Query(ctx, input.Query, opts)
	if err != nil {
		return nil, RAGOutput{}, err
	}

	output := RAGOutput{
		Coverage: string(bundle.Coverage),
		Results:  make([]ResultOutput, len(bundle.Results)),
	}
	for i := range bundle.Results {
		r := bundle.Results[i]
		output.Results[i] = toResultOutput(r.Document, r.Score, r.Relevance)
	}

	if s.ports.Composer != nil {
		answer, err := s.ports.Composer.Compose(ctx, *bundle)
		if err != nil {
			return nil, RAGOutput{}, err
		}
		output.Answer = answer.Text
		output.Grounded = answer.Grounded
		output.Suggestions = answer.Suggestions
	}

	return nil, output, nil
}

func toResultOutput(doc domain.Document, score, relevance float64) ResultOutput {
	return ResultOutput{
		DocumentID: doc.ID,
		Title:      domain.StrVal(doc.Title),
		Court:      domain.StrVal(doc.Court),
		Code:       domain.StrVal(doc.Code),
		Article:    domain.StrVal(doc.Article),
		Date:       domain.StrVal(doc.Date),
		Score:      score,
		Relevance:  relevance,
		Text:       doc.Text,
	}
}
