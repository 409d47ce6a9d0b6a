package driven

import (
	"context"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

// DocumentStore is the durable mapping from vector handle to full
// document metadata. The whole table is loaded into memory at startup
// and treated as read-only for the lifetime of a serving process; a
// rebuild produces a new generation rather than mutating the live one.
//
// Backed by a columnar parquet table so optional fields round-trip
// (absent stays distinguishable from empty string) and partial loads
// stay efficient at corpus scale.
type DocumentStore interface {
	// Put upserts metadata for a handle. Last write wins.
	Put(ctx context.Context, handle domain.Handle, doc domain.Document) error

	// Get returns the document for a handle, or domain.ErrNotFound.
	// Callers treat a dangling handle as degraded-but-recoverable:
	// skip and log, never a user-facing error.
	Get(ctx context.Context, handle domain.Handle) (*domain.Document, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Persist writes the table to durable storage atomically.
	Persist(ctx context.Context) error

	// Load replaces the in-memory table from durable storage.
	Load(ctx context.Context) error

	// Close releases resources.
	Close() error
}
