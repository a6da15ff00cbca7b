package driven

import "github.com/custodia-labs/kbase/internal/core/domain"

// Chunker splits ordered page texts into bounded chunks with page provenance.
type Chunker interface {
	Chunk(pages []domain.PageText) []domain.ChunkSpan
}
