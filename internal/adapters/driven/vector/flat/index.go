// Package flat provides the in-process vector index: exact brute-force
// inner-product search over L2-normalized vectors. Exactness is the
// point - an approximate index can silently drop the single most
// relevant precedent, which is unacceptable for legal citation
// integrity, and the corpus size keeps brute force within acceptable
// latency.
package flat

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
	"github.com/arandu-labs/jurisrag/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// snapshotFile is the serialized index name within the index directory.
const snapshotFile = "vectors.gob"

// Index is an exact flat inner-product index.
type Index struct {
	mu      sync.RWMutex
	dir     string
	dim     int
	handles []domain.Handle
	vectors [][]float32
	pos     map[domain.Handle]int
	score   scorer
}

// snapshot is the on-disk representation.
type snapshot struct {
	Dim     int
	Handles []domain.Handle
	Vectors [][]float32
}

// New creates or opens a flat index in dir with the given
// dimensionality. An existing snapshot with a different dimensionality
// is a configuration error.
func New(dir string, dim int) (*Index, error) {
	if dir == "" {
		return nil, errors.New("flat: index directory cannot be empty")
	}
	if dim <= 0 {
		return nil, errors.New("flat: dimension must be positive")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("flat: create index directory: %w", err)
	}

	idx := &Index{
		dir:   dir,
		dim:   dim,
		pos:   make(map[domain.Handle]int),
		score: activeScorer(),
	}
	if err := idx.load(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Index upserts the entries and persists the snapshot atomically.
// The batch either fully succeeds or leaves the served snapshot
// untouched.
func (idx *Index) Index(_ context.Context, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return errors.New("flat: empty entry batch")
	}
	for i := range entries {
		if len(entries[i].Vector) != idx.dim {
			return fmt.Errorf("flat: entry %d has %d dimensions, index has %d: %w",
				i, len(entries[i].Vector), idx.dim, domain.ErrDimensionMismatch)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i := range entries {
		if at, ok := idx.pos[entries[i].Handle]; ok {
			// Re-indexing an existing handle replaces its vector.
			idx.vectors[at] = entries[i].Vector
			continue
		}
		idx.pos[entries[i].Handle] = len(idx.handles)
		idx.handles = append(idx.handles, entries[i].Handle)
		idx.vectors = append(idx.vectors, entries[i].Vector)
	}

	return idx.persist()
}

// Search returns up to q.K hits ordered by descending score. An empty
// index yields an empty result, not an error.
func (idx *Index) Search(_ context.Context, q driven.VectorQuery) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.handles) == 0 {
		return nil, nil
	}
	if len(q.Vector) != idx.dim {
		return nil, fmt.Errorf("flat: query has %d dimensions, index has %d: %w",
			len(q.Vector), idx.dim, domain.ErrDimensionMismatch)
	}
	if q.K <= 0 {
		return nil, nil
	}

	scores := make([]float64, len(idx.handles))
	for i := range idx.vectors {
		scores[i] = float64(idx.score.dot(q.Vector, idx.vectors[i]))
	}

	order := make([]int, len(idx.handles))
	for i := range order {
		order[i] = i
	}
	// Ties break on insertion order so results are stable across
	// identical rebuilds.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	k := q.K
	if k > len(order) {
		k = len(order)
	}
	hits := make([]driven.VectorHit, k)
	for i := 0; i < k; i++ {
		hits[i] = driven.VectorHit{
			Handle: idx.handles[order[i]],
			Score:  scores[order[i]],
		}
	}
	return hits, nil
}

// Count returns the number of distinct indexed handles.
func (idx *Index) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.handles), nil
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// persist writes the snapshot to a temp file and renames it into place,
// so a crash mid-write never corrupts the previously served index.
// Caller must hold the write lock.
func (idx *Index) persist() error {
	final := filepath.Join(idx.dir, snapshotFile)
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("flat: create temp snapshot: %w", err)
	}

	snap := snapshot{Dim: idx.dim, Handles: idx.handles, Vectors: idx.vectors}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flat: encode snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flat: sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("flat: close snapshot: %w", err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("flat: swap snapshot: %w", err)
	}
	logger.Debug("Flat index persisted: %d vectors", len(idx.handles))
	return nil
}

// load reads an existing snapshot, if any.
func (idx *Index) load() error {
	f, err := os.Open(filepath.Join(idx.dir, snapshotFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("flat: open snapshot: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("flat: decode snapshot: %w", err)
	}
	if snap.Dim != idx.dim {
		return fmt.Errorf("flat: snapshot has %d dimensions, configured %d: %w",
			snap.Dim, idx.dim, domain.ErrDimensionMismatch)
	}

	idx.handles = snap.Handles
	idx.vectors = snap.Vectors
	idx.pos = make(map[domain.Handle]int, len(snap.Handles))
	for i, h := range snap.Handles {
		idx.pos[h] = i
	}
	logger.Debug("Flat index loaded: %d vectors", len(idx.handles))
	return nil
}
