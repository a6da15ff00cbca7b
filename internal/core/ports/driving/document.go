package driving

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// DocumentService manages indexed documents.
type DocumentService interface {
	// List returns all documents, most recently indexed first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetContent returns the document's chunks in sequence order.
	GetContent(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, documentID string) error
}
