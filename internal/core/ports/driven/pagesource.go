package driven

import (
	"context"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// PageSource extracts ordered page texts from raw file content.
// Each implementation handles specific file extensions.
type PageSource interface {
	// Extensions returns the lower-case file extensions handled, with the dot.
	Extensions() []string

	// Pages returns the page texts of content, numbered from 1.
	Pages(ctx context.Context, name string, content []byte) ([]domain.PageText, error)
}

// PageSourceRegistry selects a PageSource for a file name.
type PageSourceRegistry interface {
	// Register adds a source for its extensions.
	Register(source PageSource)

	// For returns the source for name, or domain.ErrUnsupportedType.
	For(name string) (PageSource, error)

	// Extensions returns every registered extension.
	Extensions() []string
}
