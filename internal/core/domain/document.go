package domain

// Metadata keys carried by every chunk so a retrieved chunk can be traced
// back to its parent decision and its position within it.
const (
	MetaParentID   = "parent_id"
	MetaChunkIndex = "chunk_index"
	MetaChunkCount = "chunk_count"
)

// Document represents a retrievable unit of content: either a full court
// decision from the corpus or a chunk produced by splitting one.
// It is the canonical representation after corpus cleanup.
type Document struct {
	// ID is the unique, stable identifier. For chunks it is derived
	// deterministically from the parent ID and chunk index so that
	// re-indexing the same corpus is idempotent.
	ID string

	// Text is the canonical searchable text. Required, non-empty for
	// anything that reaches the index.
	Text string

	// Title is the human-readable title (e.g. "HC 123456 / SP").
	Title *string

	// Court is the issuing court (STF, STJ, TRF4, ...).
	Court *string

	// Code is the legal code the decision interprets (e.g. "CPP").
	Code *string

	// Article is the statute article at issue (e.g. "art. 312").
	Article *string

	// Date is the decision date as published (display string).
	Date *string

	// Meta contains arbitrary additional attributes: case number,
	// rapporteur, source tribunal, chunk lineage.
	Meta map[string]string
}

// IsChunk reports whether the document was produced by the chunker.
func (d *Document) IsChunk() bool {
	_, ok := d.Meta[MetaParentID]
	return ok
}

// ParentID returns the source document ID for a chunk, or the document's
// own ID when it is not a chunk.
func (d *Document) ParentID() string {
	if id, ok := d.Meta[MetaParentID]; ok {
		return id
	}
	return d.ID
}

// StrPtr returns a pointer to s, or nil when s is empty.
// Optional metadata distinguishes absent from empty string.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StrVal dereferences an optional field, returning "" for absent.
func StrVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
