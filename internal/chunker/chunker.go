// Package chunker splits long decisions into overlapping token-bounded
// segments prior to indexing, preserving enough lineage metadata that a
// retrieved chunk can always be traced back to its parent document.
package chunker

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

// Default chunking configuration, in tokens.
const (
	DefaultTargetSize = 600
	DefaultMinSize    = 400
	DefaultMaxSize    = 800
	DefaultOverlap    = 100
)

// DefaultSeparators are the preferred split boundaries in priority
// order: paragraph break, line break, sentence end, whitespace.
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", ". ", " "}
}

// Config specifies chunk sizing. Sizes count tokens, where a token is a
// whitespace-delimited word - an approximation of model tokens that is
// stable across tokenizer versions.
type Config struct {
	// TargetSize is the aimed-for chunk length.
	TargetSize int

	// MinSize and MaxSize bound every chunk except possibly the final
	// chunk of a document, which may be shorter than MinSize.
	MinSize int
	MaxSize int

	// Overlap is the approximate number of tokens consecutive chunks
	// share, so a fact spanning a boundary appears intact in at least
	// one chunk.
	Overlap int

	// Separators are the preferred split boundaries, tried in order.
	// A hard cut is used only when none occurs within tolerance.
	Separators []string
}

// withDefaults fills zero values and clamps inconsistent settings.
func (c Config) withDefaults() Config {
	if c.TargetSize <= 0 {
		c.TargetSize = DefaultTargetSize
	}
	if c.MinSize <= 0 {
		c.MinSize = DefaultMinSize
	}
	if c.MaxSize <= 0 {
		c.MaxSize = DefaultMaxSize
	}
	if c.MinSize > c.TargetSize {
		c.MinSize = c.TargetSize
	}
	if c.MaxSize < c.TargetSize {
		c.MaxSize = c.TargetSize
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
	if c.Overlap == 0 {
		c.Overlap = DefaultOverlap
	}
	// Overlap must leave room to advance.
	if c.Overlap >= c.MinSize {
		c.Overlap = c.MinSize / 2
	}
	if len(c.Separators) == 0 {
		c.Separators = DefaultSeparators()
	}
	return c
}

// Splitter splits documents according to a fixed configuration.
type Splitter struct {
	cfg Config
}

// New creates a splitter, applying defaults to the configuration.
func New(cfg Config) *Splitter {
	return &Splitter{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration after defaulting.
func (s *Splitter) Config() Config {
	return s.cfg
}

// span is a token's byte range within the document text.
type span struct {
	start, end int
}

// Split cuts a document into overlapping chunks. Empty or
// whitespace-only text yields an empty slice: nothing to index, not a
// fault. Every chunk carries the parent's metadata plus lineage keys.
func (s *Splitter) Split(doc domain.Document) []domain.Document {
	text := doc.Text
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	// Short documents pass through as a single chunk.
	var windows []span
	if len(tokens) <= s.cfg.MaxSize {
		windows = []span{{tokens[0].start, tokens[len(tokens)-1].end}}
	} else {
		windows = s.windows(text, tokens)
	}

	chunks := make([]domain.Document, len(windows))
	for i, w := range windows {
		chunks[i] = s.buildChunk(doc, i, len(windows), text[w.start:w.end])
	}
	return chunks
}

// windows computes chunk byte ranges over the token stream.
func (s *Splitter) windows(text string, tokens []span) []span {
	var out []span
	start := 0
	for start < len(tokens) {
		remaining := len(tokens) - start
		if remaining <= s.cfg.MaxSize {
			out = append(out, span{tokens[start].start, tokens[len(tokens)-1].end})
			break
		}

		cut := s.cutPoint(text, tokens, start)
		out = append(out, span{tokens[start].start, tokens[cut-1].end})

		next := cut - s.cfg.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return out
}

// cutPoint picks the token index (exclusive) ending the chunk that
// begins at start. It prefers the highest-priority separator nearest the
// target size, constrained to [MinSize, MaxSize] tokens, and hard-cuts
// at the target only when no separator exists in that window.
func (s *Splitter) cutPoint(text string, tokens []span, start int) int {
	lo := tokens[start+s.cfg.MinSize-1].end
	hi := tokens[start+s.cfg.MaxSize-1].end
	target := tokens[start+s.cfg.TargetSize-1].end

	for _, sep := range s.cfg.Separators {
		pos := nearestSeparator(text, sep, lo, hi, target)
		if pos < 0 {
			continue
		}
		boundary := pos + len(sep)
		// First token starting at or after the separator ends the
		// previous chunk.
		for i := start + s.cfg.MinSize; i <= start+s.cfg.MaxSize && i < len(tokens); i++ {
			if tokens[i].start >= boundary {
				return i
			}
		}
	}

	return start + s.cfg.TargetSize
}

// nearestSeparator returns the byte offset of the occurrence of sep
// within [lo, hi) closest to target, or -1.
func nearestSeparator(text, sep string, lo, hi, target int) int {
	if hi > len(text) {
		hi = len(text)
	}
	if lo >= hi {
		return -1
	}
	window := text[lo:hi]

	before := strings.LastIndex(window[:min(target-lo, len(window))], sep)
	after := strings.Index(window[max(target-lo, 0):], sep)

	switch {
	case before < 0 && after < 0:
		return -1
	case before < 0:
		return lo + max(target-lo, 0) + after
	case after < 0:
		return lo + before
	}

	beforePos := lo + before
	afterPos := lo + max(target-lo, 0) + after
	if target-beforePos <= afterPos-target {
		return beforePos
	}
	return afterPos
}

// buildChunk derives the chunk document, copying the parent's typed
// fields and metadata and adding lineage keys. Chunk IDs are
// deterministic so re-indexing the same corpus is idempotent.
func (s *Splitter) buildChunk(parent domain.Document, index, count int, text string) domain.Document {
	meta := make(map[string]string, len(parent.Meta)+3)
	for k, v := range parent.Meta {
		meta[k] = v
	}
	meta[domain.MetaParentID] = parent.ID
	meta[domain.MetaChunkIndex] = strconv.Itoa(index)
	meta[domain.MetaChunkCount] = strconv.Itoa(count)

	return domain.Document{
		ID:      fmt.Sprintf("%s#%04d", parent.ID, index),
		Text:    text,
		Title:   parent.Title,
		Court:   parent.Court,
		Code:    parent.Code,
		Article: parent.Article,
		Date:    parent.Date,
		Meta:    meta,
	}
}

// tokenize returns the byte spans of whitespace-delimited tokens.
func tokenize(text string) []span {
	var spans []span
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, span{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, span{start, len(text)})
	}
	return spans
}

// CountTokens reports how many tokens Split would see in text.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}
