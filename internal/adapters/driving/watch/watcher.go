// Package watch keeps the knowledge base in sync with a directory tree.
//
// Created and modified files are re-indexed after a per-path quiet period;
// removed files have the document last indexed from that path deleted.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
	"github.com/custodia-labs/kbase/internal/logger"
)

// DefaultDebounce is the quiet period before a changed path is processed.
const DefaultDebounce = 500 * time.Millisecond

// Action describes what the watcher did for a path.
type Action string

const (
	ActionIndexed Action = "indexed"
	ActionDeleted Action = "deleted"
	ActionFailed  Action = "failed"
)

// Event reports the outcome of processing one path.
type Event struct {
	Path       string
	Action     Action
	DocumentID string
	ChunkCount int
	Err        error
}

// Config configures a Watcher.
type Config struct {
	// Root is the directory to watch, recursively.
	Root string

	// Extensions limits which files are indexed. Empty means all.
	Extensions []string

	// Include further limits indexing to paths matching one of these
	// doublestar patterns, relative to Root ("notes/**/*.md").
	Include []string

	// Debounce overrides DefaultDebounce.
	Debounce time.Duration

	// InitialScan indexes every matching file before watching.
	InitialScan bool

	// OnEvent is called from the watcher goroutine after each path is processed.
	OnEvent func(Event)
}

// Watcher re-indexes files as they change.
type Watcher struct {
	index    driving.IndexService
	docs     driving.DocumentService
	cfg      Config
	debounce time.Duration

	// byPath maps a file path to the id of the document indexed from it.
	// Only the Run goroutine touches it.
	byPath map[string]string
	timers map[string]*time.Timer
	fire   chan string
	done   chan struct{}
}

// New creates a watcher for cfg.Root.
func New(index driving.IndexService, docs driving.DocumentService, cfg Config) (*Watcher, error) {
	if index == nil || docs == nil {
		return nil, errors.New("watch: index and document services are required")
	}
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", cfg.Root)
	}

	for _, p := range cfg.Include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: invalid include pattern %q", p)
		}
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	exts := make([]string, len(cfg.Extensions))
	for i, e := range cfg.Extensions {
		exts[i] = strings.ToLower(e)
	}
	cfg.Extensions = exts

	return &Watcher{
		index:    index,
		docs:     docs,
		cfg:      cfg,
		debounce: debounce,
		byPath:   make(map[string]string),
		timers:   make(map[string]*time.Timer),
		fire:     make(chan string, 64),
		done:     make(chan struct{}),
	}, nil
}

// Run watches until ctx is cancelled and returns nil on cancellation.
// A Watcher runs at most once.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fsw.Close()
	defer close(w.done)
	defer w.stopTimers()

	files, err := w.addTree(fsw, w.cfg.Root)
	if err != nil {
		return err
	}
	logger.Info("Watching %s", w.cfg.Root)

	if w.cfg.InitialScan {
		for _, path := range files {
			if ctx.Err() != nil {
				return nil
			}
			w.process(ctx, path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleFsEvent(fsw, ev)

		case path := <-w.fire:
			delete(w.timers, path)
			w.process(ctx, path)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// handleFsEvent filters an fsnotify event and schedules its path.
func (w *Watcher) handleFsEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if w.hidden(ev.Name) {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			files, err := w.addTree(fsw, ev.Name)
			if err != nil {
				logger.Warn("watch: %v", err)
			}
			for _, f := range files {
				w.schedule(f)
			}
			return
		}
	}

	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if !w.matches(ev.Name) {
		return
	}
	w.schedule(ev.Name)
}

// schedule (re)starts the quiet period for path.
func (w *Watcher) schedule(path string) {
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		select {
		case w.fire <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stopTimers() {
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// process indexes path if it still exists, otherwise removes its document.
func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular():
		w.reindex(ctx, path)
	case err == nil:
		return
	case errors.Is(err, fs.ErrNotExist):
		w.remove(ctx, path)
	default:
		w.emit(Event{Path: path, Action: ActionFailed, Err: err})
	}
}

func (w *Watcher) reindex(ctx context.Context, path string) {
	result, err := w.index.IndexFile(ctx, path)
	if err != nil {
		w.emit(Event{Path: path, Action: ActionFailed, Err: err})
		return
	}

	previous := w.byPath[path]
	w.byPath[path] = result.DocumentID
	if previous != "" && previous != result.DocumentID {
		w.deleteUnreferenced(ctx, previous)
	}

	w.emit(Event{
		Path:       path,
		Action:     ActionIndexed,
		DocumentID: result.DocumentID,
		ChunkCount: result.ChunkCount,
	})
}

func (w *Watcher) remove(ctx context.Context, path string) {
	id, ok := w.byPath[path]
	if !ok {
		return
	}
	delete(w.byPath, path)

	if err := w.deleteUnreferenced(ctx, id); err != nil {
		w.emit(Event{Path: path, Action: ActionFailed, DocumentID: id, Err: err})
		return
	}
	w.emit(Event{Path: path, Action: ActionDeleted, DocumentID: id})
}

// deleteUnreferenced deletes a document unless another watched path with
// identical content still maps to it.
func (w *Watcher) deleteUnreferenced(ctx context.Context, id string) error {
	for _, other := range w.byPath {
		if other == id {
			return nil
		}
	}
	err := w.docs.Delete(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("watch: delete %s: %v", id, err)
		return err
	}
	return nil
}

// addTree watches dir and its non-hidden subdirectories and returns the
// matching files found.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && w.hidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		if d.Type().IsRegular() && w.matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return files, nil
}

func (w *Watcher) matches(path string) bool {
	if len(w.cfg.Extensions) > 0 &&
		!slices.Contains(w.cfg.Extensions, strings.ToLower(filepath.Ext(path))) {
		return false
	}
	if len(w.cfg.Include) == 0 {
		return true
	}
	rel, err := filepath.Rel(w.cfg.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range w.cfg.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// hidden reports whether path, relative to the root, contains a dot segment.
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.cfg.Root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

func (w *Watcher) emit(ev Event) {
	if ev.Err != nil {
		logger.Warn("watch: %s: %v", ev.Path, ev.Err)
	} else {
		logger.Debug("watch: %s %s", ev.Action, ev.Path)
	}
	if w.cfg.OnEvent != nil {
		w.cfg.OnEvent(ev)
	}
}
