package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
	"github.com/custodia-labs/kbase/internal/core/vector"
	"github.com/custodia-labs/kbase/internal/logger"
)

// Ensure IndexingService implements the interface.
var _ driving.IndexService = (*IndexingService)(nil)

const opIndex = "index"

// IndexingService chunks a document, embeds the chunks in bounded batches
// and commits the result in a single store write.
type IndexingService struct {
	docStore  driven.DocumentStore
	embedder  driven.EmbeddingService
	chunker   driven.Chunker
	sources   driven.PageSourceRegistry
	batchSize int
	now       func() time.Time
}

// IndexOption configures an IndexingService.
type IndexOption func(*IndexingService)

// WithBatchSize sets the number of chunks sent per embedding request.
// Values are clamped to [1, domain.MaxEmbedBatch].
func WithBatchSize(n int) IndexOption {
	return func(s *IndexingService) {
		s.batchSize = domain.ClampBatchSize(n)
	}
}

// WithPageSources enables IndexFile.
func WithPageSources(r driven.PageSourceRegistry) IndexOption {
	return func(s *IndexingService) {
		s.sources = r
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) IndexOption {
	return func(s *IndexingService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewIndexingService creates a new indexing service.
func NewIndexingService(
	docStore driven.DocumentStore,
	embedder driven.EmbeddingService,
	chunker driven.Chunker,
	opts ...IndexOption,
) *IndexingService {
	s := &IndexingService{
		docStore:  docStore,
		embedder:  embedder,
		chunker:   chunker,
		batchSize: domain.MaxEmbedBatch,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index builds and commits the index for one document.
// Any failed embedding batch aborts the run with nothing persisted.
func (s *IndexingService) Index(ctx context.Context, req domain.IndexRequest) (*domain.IndexResult, error) {
	if err := validateIndexRequest(&req); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%s: %w", opIndex, domain.ErrEmbeddingUnavailable)
	}

	runID := uuid.NewString()
	logger.Section("Indexing")
	logger.Debug("[%s] document %s (%q): %d pages, %d bytes", runID, req.DocumentID, req.Name, req.PageCount, req.ByteSize)

	spans := s.chunker.Chunk(req.Pages)
	if len(spans) == 0 {
		return nil, domain.InputError(opIndex, fmt.Sprintf("document %s has no indexable text", req.DocumentID))
	}
	logger.Debug("[%s] chunker produced %d chunks", runID, len(spans))

	vectors, err := s.embedAll(ctx, runID, spans)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	chunks := make([]domain.Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(req.DocumentID, i),
			DocumentID: req.DocumentID,
			Index:      i,
			CreatedAt:  now,
			PageStart:  span.PageStart,
			PageEnd:    span.PageEnd,
			Text:       span.Text,
			Embedding:  vector.Normalize(vectors[i]),
		}
	}

	doc := &domain.Document{
		ID:             req.DocumentID,
		Name:           req.Name,
		CreatedAt:      now,
		PageCount:      req.PageCount,
		ByteSize:       req.ByteSize,
		EmbeddingModel: s.embedder.ModelName(),
		ChunkCount:     len(chunks),
	}

	if err := s.docStore.ReplaceDocument(ctx, doc, chunks); err != nil {
		logger.Warn("[%s] commit failed: %v", runID, err)
		return nil, domain.StorageError(opIndex, req.DocumentID, err)
	}

	logger.Info("[%s] indexed %q: %d chunks", runID, req.Name, len(chunks))
	return &domain.IndexResult{
		DocumentID: req.DocumentID,
		ChunkCount: len(chunks),
		RunID:      runID,
	}, nil
}

// embedAll embeds spans batch by batch, in order. Every vector of a run
// must share one dimension.
func (s *IndexingService) embedAll(ctx context.Context, runID string, spans []domain.ChunkSpan) ([][]float32, error) {
	size := domain.ClampBatchSize(s.batchSize)
	total := (len(spans) + size - 1) / size
	vectors := make([][]float32, 0, len(spans))
	dims := 0

	for b := 0; b < total; b++ {
		start := b * size
		end := min(start+size, len(spans))
		detail := fmt.Sprintf("batch %d/%d (chunks %d-%d)", b+1, total, start, end-1)

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = spans[start+i].Text
		}

		logger.Debug("[%s] embedding %s", runID, detail)
		got, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			logger.Warn("[%s] %s failed: %v", runID, detail, err)
			return nil, domain.ProviderError(opIndex, detail, err)
		}
		if len(got) != len(texts) {
			return nil, domain.ProviderError(opIndex, detail,
				fmt.Errorf("provider returned %d vectors for %d inputs", len(got), len(texts)))
		}

		for i, v := range got {
			if len(v) == 0 {
				return nil, domain.ProviderError(opIndex, detail, fmt.Errorf("empty vector for chunk %d", start+i))
			}
			if dims == 0 {
				dims = len(v)
			}
			if len(v) != dims {
				return nil, domain.ProviderError(opIndex, detail,
					fmt.Errorf("chunk %d has dimension %d, expected %d", start+i, len(v), dims))
			}
		}
		vectors = append(vectors, got...)
	}

	return vectors, nil
}

// IndexFile reads a local file and indexes it under its content-derived id.
func (s *IndexingService) IndexFile(ctx context.Context, path string) (*domain.IndexResult, error) {
	if s.sources == nil {
		return nil, fmt.Errorf("%s: no page sources configured: %w", opIndex, domain.ErrUnsupportedType)
	}

	source, err := s.sources.For(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	name := filepath.Base(path)
	pages, err := source.Pages(ctx, name, content)
	if err != nil {
		return nil, fmt.Errorf("extract pages from %s: %w", path, err)
	}

	return s.Index(ctx, domain.IndexRequest{
		DocumentID: domain.DocumentIDFromContent(content),
		Name:       name,
		ByteSize:   int64(len(content)),
		PageCount:  len(pages),
		Pages:      pages,
	})
}

// validateIndexRequest rejects malformed descriptors and fills PageCount.
func validateIndexRequest(req *domain.IndexRequest) error {
	switch {
	case strings.TrimSpace(req.DocumentID) == "":
		return domain.InputError(opIndex, "document id is empty")
	case strings.TrimSpace(req.Name) == "":
		return domain.InputError(opIndex, "document name is empty")
	case req.ByteSize < 0:
		return domain.InputError(opIndex, "byte size is negative")
	case len(req.Pages) == 0:
		return domain.InputError(opIndex, "document has no pages")
	}

	if req.PageCount == 0 {
		req.PageCount = len(req.Pages)
	}
	if req.PageCount != len(req.Pages) {
		return domain.InputError(opIndex,
			fmt.Sprintf("page count %d does not match %d pages", req.PageCount, len(req.Pages)))
	}

	// The chunker labels every page, so blank pages would still yield
	// marker-only chunks.
	for _, p := range req.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return nil
		}
	}
	return domain.InputError(opIndex, "document has no text")
}
