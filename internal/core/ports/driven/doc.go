// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: turns text into fixed-dimension vectors
//   - VectorIndex: stores vectors, answers top-K inner-product queries
//   - DocumentStore: durable handle -> document metadata mapping
//   - CorpusCatalog: the cleaned corpus the index is built from
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AnswerComposer: grounded answer synthesis. Without it, the RAG
//     endpoints return the relevance bundle with no composed answer.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
