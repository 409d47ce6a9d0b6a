package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arandu-labs/jurisrag/internal/chunker"
	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driving"
	"github.com/arandu-labs/jurisrag/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// embedBatchSize bounds the number of texts sent to the embedder per
// request. Failure of any sub-batch still fails the whole build.
const embedBatchSize = 64

// Indexer runs the batch build pipeline: read the corpus catalog,
// chunk, embed, upsert vectors and metadata, persist both artifacts.
// The build runs to completion before the index is swapped into
// service; there are no concurrent incremental writers.
type Indexer struct {
	catalog  driven.CorpusCatalog
	splitter *chunker.Splitter
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	docs     driven.DocumentStore
	backend  string
}

// NewIndexer creates the index build service.
func NewIndexer(
	catalog driven.CorpusCatalog,
	splitter *chunker.Splitter,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	docs driven.DocumentStore,
	backend string,
) *Indexer {
	return &Indexer{
		catalog:  catalog,
		splitter: splitter,
		embedder: embedder,
		index:    index,
		docs:     docs,
		backend:  backend,
	}
}

// Build runs a full batch rebuild and records the run in the catalog.
func (ix *Indexer) Build(ctx context.Context) (*driving.BuildReport, error) {
	logger.Section("Index Build")
	started := time.Now().UTC()
	runID := uuid.NewString()
	logger.Info("Build %s starting (backend=%s)", runID, ix.backend)

	if ix.catalog == nil {
		return nil, domain.ErrCatalogUnavailable
	}

	decisions, err := ix.catalog.ListDecisions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list corpus: %w", err)
	}
	if len(decisions) == 0 {
		return nil, fmt.Errorf("corpus catalog has no decisions: %w", domain.ErrNotFound)
	}
	logger.Info("Corpus: %d decisions", len(decisions))

	var chunks []domain.Document
	skipped := 0
	for i := range decisions {
		cs := ix.splitter.Split(decisions[i])
		if len(cs) == 0 {
			// Empty text means nothing to index, not a fault.
			logger.Warn("Decision %s has no indexable text, skipping", decisions[i].ID)
			skipped++
			continue
		}
		chunks = append(chunks, cs...)
	}
	logger.Info("Chunking: %d chunks (%d decisions skipped)", len(chunks), skipped)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("corpus produced no chunks: %w", domain.ErrNotFound)
	}

	vectors, err := ix.embedAll(ctx, chunks)
	if err != nil {
		// Whole-batch failure: nothing is indexed.
		return nil, fmt.Errorf("embed corpus: %w", err)
	}

	entries := make([]driven.VectorEntry, len(chunks))
	for i := range chunks {
		handle := domain.HandleFor(chunks[i].ID)
		entries[i] = driven.VectorEntry{
			Handle: handle,
			Vector: vectors[i],
			Text:   chunks[i].Text,
		}
		if err := ix.docs.Put(ctx, handle, chunks[i]); err != nil {
			return nil, fmt.Errorf("store metadata for %s: %w", chunks[i].ID, err)
		}
	}

	if err := ix.index.Index(ctx, entries); err != nil {
		return nil, fmt.Errorf("index vectors: %w", err)
	}
	if err := ix.docs.Persist(ctx); err != nil {
		return nil, fmt.Errorf("persist metadata: %w", err)
	}

	run := driven.IndexRun{
		ID:         runID,
		Backend:    ix.backend,
		Documents:  len(decisions),
		Chunks:     len(chunks),
		StartedAt:  started.Format(time.RFC3339),
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := ix.catalog.RecordIndexRun(ctx, run); err != nil {
		// Bookkeeping only; the build itself succeeded.
		logger.Warn("Recording index run failed: %v", err)
	}

	logger.Info("Build %s finished: %d chunks from %d decisions", runID, len(chunks), len(decisions))
	return &driving.BuildReport{
		RunID:     runID,
		Documents: len(decisions),
		Chunks:    len(chunks),
		Skipped:   skipped,
	}, nil
}

// embedAll embeds every chunk text in bounded sub-batches.
func (ix *Indexer) embedAll(ctx context.Context, chunks []domain.Document) ([][]float32, error) {
	if ix.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vectors := make([][]float32, 0, len(chunks))
	for lo := 0; lo < len(chunks); lo += embedBatchSize {
		hi := lo + embedBatchSize
		if hi > len(chunks) {
			hi = len(chunks)
		}
		texts := make([]string, hi-lo)
		for i := lo; i < hi; i++ {
			texts[i-lo] = chunks[i].Text
		}
		logger.Debug("Embedding chunks %d..%d", lo, hi-1)
		batch, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch %d..%d: %w", lo, hi-1, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
