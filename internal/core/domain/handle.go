package domain

import "hash/fnv"

// Handle is the opaque 64-bit key a document is indexed under.
// It is derived deterministically from the document ID, so the same ID
// always maps to the same handle across process restarts, which makes
// re-indexing idempotent and lets search results be joined back to
// metadata without storing the string ID in the vector index.
type Handle uint64

// HandleFor computes the handle for a document ID using FNV-1a.
func HandleFor(id string) Handle {
	h := fnv.New64a()
	h.Write([]byte(id))
	return Handle(h.Sum64())
}
