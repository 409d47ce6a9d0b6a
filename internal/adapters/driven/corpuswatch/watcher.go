// Package corpuswatch monitors the corpus ingest directory and flags
// the index as stale when new scraper output lands. It never triggers
// a rebuild itself; builds are batch operations the operator runs.
package corpuswatch

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/arandu-labs/jurisrag/internal/logger"
)

// watchedExtensions are the scraper output formats that count as
// corpus changes.
var watchedExtensions = []string{".jsonl", ".json"}

// Watcher flags index staleness from filesystem events.
type Watcher struct {
	watcher *fsnotify.Watcher
	stale   atomic.Bool
	events  chan string
}

// NewWatcher creates a corpus watcher for the given ingest directory.
func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		watcher: fsw,
		events:  make(chan string, 100),
	}, nil
}

// Run consumes filesystem events until the context is cancelled. Each
// relevant create or write marks the index stale and emits the path on
// Events.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isCorpusFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if w.stale.CompareAndSwap(false, true) {
				logger.Info("Corpus change detected (%s), index is stale until the next build", event.Name)
			}
			select {
			case w.events <- event.Name:
			default:
				// Slow consumer; staleness is already flagged.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Corpus watcher error: %v", err)
		}
	}
}

// Stale reports whether corpus files changed since the last reset.
func (w *Watcher) Stale() bool {
	return w.stale.Load()
}

// Reset clears the staleness flag, typically after a completed build.
func (w *Watcher) Reset() {
	w.stale.Store(false)
}

// Events exposes the paths of changed corpus files.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func isCorpusFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range watchedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
