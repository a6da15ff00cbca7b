package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/core/domain"
)

// fakeIndex derives the document id from file content.
type fakeIndex struct {
	mu      sync.Mutex
	indexed []string
	err     error
}

func (f *fakeIndex) Index(_ context.Context, req domain.IndexRequest) (*domain.IndexResult, error) {
	return &domain.IndexResult{DocumentID: req.DocumentID}, nil
}

func (f *fakeIndex) IndexFile(_ context.Context, path string) (*domain.IndexResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f.indexed = append(f.indexed, path)
	return &domain.IndexResult{DocumentID: domain.DocumentIDFromContent(content), ChunkCount: 1}, nil
}

type fakeDocs struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeDocs) List(context.Context) ([]domain.Document, error)            { return nil, nil }
func (f *fakeDocs) Get(context.Context, string) (*domain.Document, error)      { return nil, domain.ErrNotFound }
func (f *fakeDocs) GetContent(context.Context, string) ([]domain.Chunk, error) { return nil, nil }

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDocs) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func newTestWatcher(t *testing.T, cfg Config) (*Watcher, *fakeIndex, *fakeDocs) {
	t.Helper()
	index, docs := &fakeIndex{}, &fakeDocs{}
	if cfg.Root == "" {
		cfg.Root = t.TempDir()
	}
	w, err := New(index, docs, cfg)
	require.NoError(t, err)
	return w, index, docs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNew(t *testing.T) {
	t.Run("requires services", func(t *testing.T) {
		_, err := New(nil, &fakeDocs{}, Config{Root: t.TempDir()})
		assert.Error(t, err)
	})

	t.Run("requires a directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "a.txt")
		writeFile(t, file, "x")

		_, err := New(&fakeIndex{}, &fakeDocs{}, Config{Root: file})
		assert.Error(t, err)
	})

	t.Run("defaults debounce and lowercases extensions", func(t *testing.T) {
		w, _, _ := newTestWatcher(t, Config{Extensions: []string{".TXT"}})

		assert.Equal(t, DefaultDebounce, w.debounce)
		assert.Equal(t, []string{".txt"}, w.cfg.Extensions)
	})
}

func TestWatcher_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes an existing file", func(t *testing.T) {
		var events []Event
		w, index, _ := newTestWatcher(t, Config{OnEvent: func(e Event) { events = append(events, e) }})
		path := filepath.Join(w.cfg.Root, "a.txt")
		writeFile(t, path, "alpha")

		w.process(ctx, path)

		require.Len(t, events, 1)
		assert.Equal(t, ActionIndexed, events[0].Action)
		assert.Equal(t, domain.DocumentIDFromContent([]byte("alpha")), events[0].DocumentID)
		assert.Equal(t, []string{path}, index.indexed)
	})

	t.Run("modified file replaces the previous document", func(t *testing.T) {
		w, _, docs := newTestWatcher(t, Config{})
		path := filepath.Join(w.cfg.Root, "a.txt")

		writeFile(t, path, "v1")
		w.process(ctx, path)
		writeFile(t, path, "v2")
		w.process(ctx, path)

		assert.Equal(t, []string{domain.DocumentIDFromContent([]byte("v1"))}, docs.deletedIDs())
		assert.Equal(t, domain.DocumentIDFromContent([]byte("v2")), w.byPath[path])
	})

	t.Run("removed file deletes its document", func(t *testing.T) {
		var events []Event
		w, _, docs := newTestWatcher(t, Config{OnEvent: func(e Event) { events = append(events, e) }})
		path := filepath.Join(w.cfg.Root, "a.txt")
		writeFile(t, path, "alpha")
		w.process(ctx, path)

		require.NoError(t, os.Remove(path))
		w.process(ctx, path)

		assert.Equal(t, []string{domain.DocumentIDFromContent([]byte("alpha"))}, docs.deletedIDs())
		assert.Equal(t, ActionDeleted, events[len(events)-1].Action)
		assert.Empty(t, w.byPath)
	})

	t.Run("identical copy keeps the shared document", func(t *testing.T) {
		w, _, docs := newTestWatcher(t, Config{})
		a := filepath.Join(w.cfg.Root, "a.txt")
		b := filepath.Join(w.cfg.Root, "b.txt")
		writeFile(t, a, "same")
		writeFile(t, b, "same")
		w.process(ctx, a)
		w.process(ctx, b)

		require.NoError(t, os.Remove(a))
		w.process(ctx, a)

		assert.Empty(t, docs.deletedIDs())
	})

	t.Run("unknown removed path is ignored", func(t *testing.T) {
		w, _, docs := newTestWatcher(t, Config{})

		w.process(ctx, filepath.Join(w.cfg.Root, "never.txt"))

		assert.Empty(t, docs.deletedIDs())
	})

	t.Run("index failure is reported", func(t *testing.T) {
		var events []Event
		w, index, _ := newTestWatcher(t, Config{OnEvent: func(e Event) { events = append(events, e) }})
		index.err = domain.ProviderError("index", "batch 1/1", assert.AnError)
		path := filepath.Join(w.cfg.Root, "a.txt")
		writeFile(t, path, "alpha")

		w.process(ctx, path)

		require.Len(t, events, 1)
		assert.Equal(t, ActionFailed, events[0].Action)
		assert.True(t, domain.IsProviderError(events[0].Err))
		assert.Empty(t, w.byPath)
	})
}

func TestWatcher_Filters(t *testing.T) {
	w, _, _ := newTestWatcher(t, Config{Extensions: []string{".md"}})
	root := w.cfg.Root

	assert.True(t, w.matches(filepath.Join(root, "notes.MD")))
	assert.False(t, w.matches(filepath.Join(root, "notes.txt")))
	assert.True(t, w.hidden(filepath.Join(root, ".git", "HEAD")))
	assert.True(t, w.hidden(filepath.Join(root, "docs", ".draft.md")))
	assert.False(t, w.hidden(filepath.Join(root, "docs", "a.md")))
}

func TestWatcher_IncludePatterns(t *testing.T) {
	w, _, _ := newTestWatcher(t, Config{
		Extensions: []string{".md", ".txt"},
		Include:    []string{"notes/**/*.md", "todo.txt"},
	})
	root := w.cfg.Root

	assert.True(t, w.matches(filepath.Join(root, "notes", "2024", "jan.md")))
	assert.True(t, w.matches(filepath.Join(root, "todo.txt")))
	assert.False(t, w.matches(filepath.Join(root, "drafts", "jan.md")))
	assert.False(t, w.matches(filepath.Join(root, "notes", "scan.pdf")))
}

func TestNew_RejectsBadIncludePattern(t *testing.T) {
	_, err := New(&fakeIndex{}, &fakeDocs{}, Config{Root: t.TempDir(), Include: []string{"notes/[a-"}})
	assert.ErrorContains(t, err, "invalid include pattern")
}

func TestWatcher_HandleFsEventIgnoresChmod(t *testing.T) {
	w, _, _ := newTestWatcher(t, Config{})

	w.handleFsEvent(nil, fsnotify.Event{Name: filepath.Join(w.cfg.Root, "a.txt"), Op: fsnotify.Chmod})

	assert.Empty(t, w.timers)
}

func TestWatcher_Run(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "existing.txt")
	writeFile(t, existing, "first")
	writeFile(t, filepath.Join(root, ".hidden", "skip.txt"), "hidden")

	var mu sync.Mutex
	seen := map[string]Action{}
	index, docs := &fakeIndex{}, &fakeDocs{}
	w, err := New(index, docs, Config{
		Root:        root,
		Extensions:  []string{".txt"},
		Debounce:    20 * time.Millisecond,
		InitialScan: true,
		OnEvent: func(e Event) {
			mu.Lock()
			defer mu.Unlock()
			seen[filepath.Base(e.Path)] = e.Action
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	actionFor := func(name string) Action {
		mu.Lock()
		defer mu.Unlock()
		return seen[name]
	}

	require.Eventually(t, func() bool { return actionFor("existing.txt") == ActionIndexed },
		2*time.Second, 10*time.Millisecond)

	writeFile(t, filepath.Join(root, "new.txt"), "second")
	require.Eventually(t, func() bool { return actionFor("new.txt") == ActionIndexed },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(existing))
	require.Eventually(t, func() bool { return actionFor("existing.txt") == ActionDeleted },
		2*time.Second, 10*time.Millisecond)

	assert.Empty(t, actionFor("skip.txt"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
