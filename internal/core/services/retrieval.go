package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
	"github.com/custodia-labs/kbase/internal/core/vector"
	"github.com/custodia-labs/kbase/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

const opSearch = "search"

// RetrievalService performs exact top-K similarity search over stored chunks.
// Every candidate chunk is scored; this is intended for a few thousand
// chunks, not as an approximate index.
type RetrievalService struct {
	docStore driven.DocumentStore
	embedder driven.EmbeddingService
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(docStore driven.DocumentStore, embedder driven.EmbeddingService) *RetrievalService {
	return &RetrievalService{
		docStore: docStore,
		embedder: embedder,
	}
}

// Search embeds the query and returns the best K chunks.
func (s *RetrievalService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Hit, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	if strings.TrimSpace(query) == "" {
		return nil, domain.InputError(opSearch, "query is empty")
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("%s: %w", opSearch, domain.ErrEmbeddingUnavailable)
	}

	k := domain.ClampK(opts.K)
	if k != opts.K {
		logger.Debug("Requested k=%d clamped to %d", opts.K, k)
	}

	raw, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, domain.ProviderError(opSearch, "embed query", err)
	}
	if len(raw) == 0 {
		return nil, domain.ProviderError(opSearch, "embed query", fmt.Errorf("provider returned an empty vector"))
	}
	queryVec := vector.Normalize(raw)

	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, domain.StorageError(opSearch, "", err)
	}
	byID := make(map[string]domain.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	candidates := candidateIDs(opts.DocumentIDs, docs)
	if len(candidates) == 0 {
		logger.Debug("No candidate documents, returning no hits")
		return []domain.Hit{}, nil
	}
	logger.Debug("Candidate documents: %d", len(candidates))

	model := s.embedder.ModelName()
	for _, id := range candidates {
		if d, ok := byID[id]; ok && d.EmbeddingModel != "" && d.EmbeddingModel != model {
			logger.Warn("Document %q was embedded with %s, query uses %s", d.Name, d.EmbeddingModel, model)
		}
	}

	chunks, err := s.docStore.GetChunksForDocs(ctx, candidates)
	if err != nil {
		return nil, domain.StorageError(opSearch, "", err)
	}
	logger.Debug("Scoring %d chunks (k=%d)", len(chunks), k)

	top := vector.NewTopK(k)
	for i := range chunks {
		top.Offer(vector.Scored{
			ID:    chunks[i].ID,
			Score: vector.Similarity(queryVec, chunks[i].Embedding),
			Ref:   i,
		})
	}

	ranked := top.Results()
	hits := make([]domain.Hit, len(ranked))
	for i, r := range ranked {
		c := chunks[r.Ref]
		name := byID[c.DocumentID].Name
		if name == "" {
			name = c.DocumentID
		}
		hits[i] = domain.Hit{
			DocumentID:   c.DocumentID,
			DocumentName: name,
			ChunkID:      c.ID,
			Score:        r.Score,
			PageStart:    c.PageStart,
			PageEnd:      c.PageEnd,
			Text:         c.Text,
		}
	}

	logger.Info("Final hits: %d", len(hits))
	return hits, nil
}

// candidateIDs returns the requested subset without duplicates, or every
// known document id when no subset was given.
func candidateIDs(requested []string, docs []domain.Document) []string {
	seen := make(map[string]bool)
	var ids []string

	if len(requested) > 0 {
		for _, id := range requested {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		return ids
	}

	for _, d := range docs {
		if !seen[d.ID] {
			seen[d.ID] = true
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
