package driven

import (
	"context"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
)

// AnswerComposer turns a relevance bundle into answer text. The model
// call is an external collaborator; the coverage contract is not:
// implementations MUST NOT produce a confident, uncited answer from a
// bundle classified CoverageLow or CoverageNone. For those they state
// what information is missing and offer refinement suggestions instead.
type AnswerComposer interface {
	// Compose produces an answer grounded in the bundle's documents.
	Compose(ctx context.Context, bundle domain.RelevanceBundle) (Answer, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// Answer is the composed output for a RAG query.
type Answer struct {
	// Text is the answer body. For low/none coverage it describes the
	// gap rather than answering.
	Text string

	// Grounded reports whether Text is a cited answer (true) or a
	// missing-information notice (false).
	Grounded bool

	// Suggestions are query refinements offered when coverage is too
	// weak to answer.
	Suggestions []string
}
