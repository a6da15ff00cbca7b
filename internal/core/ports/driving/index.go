package driving

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// IndexService builds the index for one document at a time.
type IndexService interface {
	// Index chunks, embeds and commits a document. Nothing is persisted
	// unless every embedding batch succeeds.
	Index(ctx context.Context, req domain.IndexRequest) (*domain.IndexResult, error)

	// IndexFile reads a local file, derives its id from the content and indexes it.
	IndexFile(ctx context.Context, path string) (*domain.IndexResult, error)
}
