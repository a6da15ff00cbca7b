package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

func testDoc(id string, chunkCount int) *domain.Document {
	return &domain.Document{
		ID:             id,
		Name:           id + ".txt",
		CreatedAt:      time.Now(),
		PageCount:      1,
		EmbeddingModel: "test-model",
		ChunkCount:     chunkCount,
	}
}

func testChunks(docID string, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(docID, i),
			DocumentID: docID,
			Index:      i,
			PageStart:  1,
			PageEnd:    1,
			Text:       fmt.Sprintf("chunk %d", i),
			Embedding:  []float32{1, 0},
		}
	}
	return chunks
}

func TestDocumentStore_PutAndGetDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.PutDocument(ctx, testDoc("a", 0)))

	got, err := store.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.Name)

	_, err = store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_GetChunksForDocs(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.ReplaceDocument(ctx, testDoc("a", 2), testChunks("a", 2)))
	require.NoError(t, store.ReplaceDocument(ctx, testDoc("b", 3), testChunks("b", 3)))

	chunks, err := store.GetChunksForDocs(ctx, []string{"a", "b", "a"})
	require.NoError(t, err)
	assert.Len(t, chunks, 5)

	chunks, err = store.GetChunksForDocs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDocumentStore_ReplaceDocument_NoDuplicates(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.ReplaceDocument(ctx, testDoc("a", 5), testChunks("a", 5)))
	require.NoError(t, store.ReplaceDocument(ctx, testDoc("a", 2), testChunks("a", 2)))

	chunks, err := store.GetChunksForDocs(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	doc, err := store.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.ChunkCount)
}

func TestDocumentStore_DeleteDocument_CascadesChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.ReplaceDocument(ctx, testDoc("a", 3), testChunks("a", 3)))

	require.NoError(t, store.DeleteDocument(ctx, "a"))

	chunks, err := store.GetChunksForDocs(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, chunks)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentStore_ChunkEmbeddingsAreCopied(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	chunks := testChunks("a", 1)
	require.NoError(t, store.PutDocument(ctx, testDoc("a", 0)))
	require.NoError(t, store.PutChunks(ctx, chunks))

	chunks[0].Embedding[0] = 99

	got, err := store.GetChunksForDocs(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, float32(1), got[0].Embedding[0])
}

func TestDocumentStore_PutChunks_UpdatesChunkCount(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, store.PutDocument(ctx, testDoc("a", 99)))

	doc, err := store.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, doc.ChunkCount)

	require.NoError(t, store.PutChunks(ctx, testChunks("a", 3)))
	doc, err = store.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, doc.ChunkCount)
}

func TestDocumentStore_PutChunks_UnknownDocument(t *testing.T) {
	store := NewDocumentStore()

	err := store.PutChunks(context.Background(), testChunks("ghost", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Closed(t *testing.T) {
	store := NewDocumentStore()
	require.NoError(t, store.Close())

	_, err := store.ListDocuments(context.Background())
	assert.Error(t, err)
	assert.Error(t, store.PutDocument(context.Background(), testDoc("a", 0)))
}

// Readers must always see chunkCount equal to the stored chunk count.
func TestDocumentStore_ConcurrentReplaceAndDelete(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			count := n%4 + 1
			_ = store.ReplaceDocument(ctx, testDoc("shared", count), testChunks("shared", count))
		}(i)
		go func() {
			defer wg.Done()
			_ = store.DeleteDocument(ctx, "shared")
		}()
		go func() {
			defer wg.Done()
			store.mu.RLock()
			defer store.mu.RUnlock()
			doc, ok := store.documents["shared"]
			if ok {
				assert.Len(t, store.chunks["shared"], doc.ChunkCount)
			} else {
				assert.Empty(t, store.chunks["shared"])
			}
		}()
	}
	wg.Wait()
}
