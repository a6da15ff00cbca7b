package domain

import "time"

// Document represents an indexed document with metadata.
// A Document record only exists once every chunk of its indexing run
// has been embedded and committed.
type Document struct {
	// ID is the content-derived identifier (see DocumentIDFromContent).
	ID string `json:"id"`

	// Name is the human-readable display name, usually the file name.
	Name string `json:"name"`

	// CreatedAt is when the document was last indexed.
	CreatedAt time.Time `json:"created_at"`

	// PageCount is the number of extracted pages.
	PageCount int `json:"page_count"`

	// ByteSize is the size of the original content in bytes.
	ByteSize int64 `json:"byte_size"`

	// EmbeddingModel identifies the vector space of the document's chunks.
	EmbeddingModel string `json:"embedding_model"`

	// ChunkCount equals the number of persisted chunks for this document.
	ChunkCount int `json:"chunk_count"`
}

// Chunk is a bounded span of text from one or more contiguous pages.
type Chunk struct {
	// ID is "{DocumentID}:{Index}".
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the sequential position within the document, starting at 0.
	Index int

	// CreatedAt is when the chunk was produced.
	CreatedAt time.Time

	// PageStart is the first page (inclusive) the text was taken from.
	PageStart int

	// PageEnd is the last page (inclusive) the text was taken from.
	PageEnd int

	// Text is the chunk content.
	Text string

	// Embedding is the unit-length vector for Text.
	Embedding []float32
}

// PageText is one page of extracted document text.
type PageText struct {
	// Number is the 1-based page number.
	Number int

	// Text is the page content.
	Text string
}

// ChunkSpan is a chunk of text before it has been embedded.
type ChunkSpan struct {
	PageStart int
	PageEnd   int
	Text      string
}

// IndexRequest describes one document to index.
type IndexRequest struct {
	// DocumentID is the content-derived identifier.
	DocumentID string

	// Name is the display name.
	Name string

	// ByteSize is the size of the source content.
	ByteSize int64

	// PageCount is the number of pages. Zero means len(Pages).
	PageCount int

	// Pages holds the ordered page texts.
	Pages []PageText
}

// IndexResult reports a successful indexing run.
type IndexResult struct {
	DocumentID string
	ChunkCount int

	// RunID tags the run in logs.
	RunID string
}
