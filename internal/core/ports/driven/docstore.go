package driven

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Every write is a single transaction: readers never observe a document
// without its chunks, or chunks without their document.
type DocumentStore interface {
	// PutDocument stores or updates a document record.
	PutDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns every document in no particular order.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// PutChunks upserts chunks in one logical write.
	PutChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunksForDocs returns the union of chunks for the given documents.
	// An empty id list yields an empty result.
	GetChunksForDocs(ctx context.Context, documentIDs []string) ([]domain.Chunk, error)

	// DeleteDocument removes a document and every chunk referencing it atomically.
	DeleteDocument(ctx context.Context, id string) error

	// ReplaceDocument commits an indexing run: prior chunks for doc.ID are
	// removed, the new chunks inserted and the document upserted together.
	ReplaceDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// Close releases the underlying handle.
	Close() error
}
