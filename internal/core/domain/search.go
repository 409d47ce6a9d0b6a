package domain

// Default and maximum result counts for a retrieval request.
const (
	DefaultK = 5
	MaxK     = 20
)

// SearchOptions configures a retrieval request.
type SearchOptions struct {
	// K is the number of results to return (1..MaxK, default DefaultK).
	K int

	// Filters restricts results to documents whose metadata matches
	// every key/value pair (court, tribunal, article, ...).
	Filters map[string]string
}

// Normalize applies defaults and reports whether the options are valid.
func (o *SearchOptions) Normalize() bool {
	if o.K == 0 {
		o.K = DefaultK
	}
	return o.K >= 1 && o.K <= MaxK
}

// SearchResult represents a single retrieval hit.
type SearchResult struct {
	// Document is the hydrated chunk or decision that matched.
	Document Document

	// Score is the raw similarity value from the index backend:
	// inner product on L2-normalized vectors, so practically 0..1.
	Score float64
}

// ScoredResult extends a SearchResult with its softmax relevance share.
type ScoredResult struct {
	Document Document

	// Score is the raw backend similarity value.
	Score float64

	// Relevance is the relative relevance percentage within the batch.
	// Shares sum to 100 across one bundle. This is a ranking
	// visualization aid, not a probability of correctness.
	Relevance float64
}

// RelevanceBundle is the retrieval pipeline's terminal output: the
// context handed to answer composition.
type RelevanceBundle struct {
	// Query is the original query text.
	Query string

	// Results are ordered by descending raw score.
	Results []ScoredResult

	// Coverage summarizes whether the batch can ground an answer.
	// It is CoverageNone exactly when Results is empty.
	Coverage CoverageLevel
}
