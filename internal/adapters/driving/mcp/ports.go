package mcp

import (
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval provides search and RAG query capabilities.
	Retrieval driving.RetrievalService

	// Composer produces answer text from relevance bundles. Optional;
	// without it rag_query returns the scored bundle only.
	Composer driven.AnswerComposer

	// Catalog backs the corpus status resource. Optional.
	Catalog driven.CorpusCatalog
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	// Composer and Catalog are optional
	return nil
}
