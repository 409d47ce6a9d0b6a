package driven

import (
	"context"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

// CorpusCatalog is the cleaned corpus the index is built from: court
// decisions ingested from scraper output. Scraping itself is out of
// scope; the catalog is its landing zone.
type CorpusCatalog interface {
	// SaveDecisions upserts decisions by ID.
	SaveDecisions(ctx context.Context, docs []domain.Document) error

	// ListDecisions returns all decisions, optionally filtered by
	// tribunal ("" means all).
	ListDecisions(ctx context.Context, tribunal string) ([]domain.Document, error)

	// CountDecisions returns the catalog size.
	CountDecisions(ctx context.Context) (int, error)

	// RecordIndexRun stores a completed index build generation.
	RecordIndexRun(ctx context.Context, run IndexRun) error

	// LastIndexRun returns the most recent build, or domain.ErrNotFound.
	LastIndexRun(ctx context.Context) (*IndexRun, error)

	// Close releases resources.
	Close() error
}

// IndexRun describes one batch index build generation.
type IndexRun struct {
	// ID is the uuid generation identifier.
	ID string

	// Backend names the vector index implementation used.
	Backend string

	// Documents is the number of corpus decisions read.
	Documents int

	// Chunks is the number of indexed chunks produced.
	Chunks int

	// StartedAt and FinishedAt are RFC3339 timestamps.
	StartedAt  string
	FinishedAt string
}
