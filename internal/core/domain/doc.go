// Package domain defines the core business entities for JurisRAG.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: a retrievable unit of court-decision text with metadata
//   - Handle: the opaque 64-bit key a document is indexed under
//   - SearchResult: a (document, raw score) pair from the vector index
//   - RelevanceBundle: scored results plus a coverage verdict
//
// It also holds the pure scoring policy: softmax relevance shares and
// the ordered coverage thresholds.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
