package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

// uriScheme is the custom URI scheme for JurisRAG resources.
const uriScheme = "jurisrag://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "corpus",
		Name:        "corpus",
		Description: "Corpus catalog status and the last index build",
		MIMEType:    "application/json",
	}, s.handleCorpusResource)
}

// corpusStatus is the corpus resource payload.
type corpusStatus struct {
	Decisions int           `json:"decisions"`
	Backend   string        `json:"backend"`
	LastBuild *buildSummary `json:"last_build,omitempty"`
}

type buildSummary struct {
	RunID      string `json:"run_id"`
	Backend    string `json:"backend"`
	Documents  int    `json:"documents"`
	Chunks     int    `json:"chunks"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

// handleCorpusResource reports the catalog size and last build.
func (s *Server) handleCorpusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	count, err := s.ports.Catalog.CountDecisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting decisions: %w", err)
	}

	status := corpusStatus{
		Decisions: count,
		Backend:   s.ports.Retrieval.Backend(),
	}

	run, err := s.ports.Catalog.LastIndexRun(ctx)
	switch {
	case err == nil:
		status.LastBuild = &buildSummary{
			RunID:      run.ID,
			Backend:    run.Backend,
			Documents:  run.Documents,
			Chunks:     run.Chunks,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		}
	case errors.Is(err, domain.ErrNotFound):
		// No build yet.
	default:
		return nil, fmt.Errorf("reading last index run: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling corpus status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
