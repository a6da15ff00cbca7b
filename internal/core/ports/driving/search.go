package driving

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// RetrievalService ranks indexed chunks against a free-text query.
type RetrievalService interface {
	// Search returns the top hits ordered by descending score, ties by ascending chunk id.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Hit, error)
}

// AnswerService generates answers grounded in retrieved passages.
type AnswerService interface {
	// Ask retrieves context for question and generates an answer from it.
	Ask(ctx context.Context, question string, opts AskOptions) (*domain.Answer, error)
}

// AskOptions configures Ask.
type AskOptions struct {
	domain.SearchOptions

	// AllowUngrounded answers without context when retrieval fails at the provider.
	AllowUngrounded bool
}
