package normalisers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/normalisers/docx"
	"github.com/custodia-labs/kbase/internal/normalisers/eml"
	"github.com/custodia-labs/kbase/internal/normalisers/html"
	"github.com/custodia-labs/kbase/internal/normalisers/markdown"
	"github.com/custodia-labs/kbase/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.PageSourceRegistry = (*Registry)(nil)

// Registry maps file extensions to page sources. Later registrations
// win for a shared extension.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]driven.PageSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]driven.PageSource)}
}

// Default returns a registry with every built-in source.
func Default() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(eml.New())
	return r
}

// Register adds a source for each of its extensions.
func (r *Registry) Register(source driven.PageSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range source.Extensions() {
		r.sources[strings.ToLower(ext)] = source
	}
}

// For returns the source for the extension of name.
func (r *Registry) For(name string) (driven.PageSource, error) {
	ext := strings.ToLower(filepath.Ext(name))

	r.mu.RLock()
	defer r.mu.RUnlock()
	if source, ok := r.sources[ext]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("%s: no page source for %q: %w", name, ext, domain.ErrUnsupportedType)
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.sources))
	for ext := range r.sources {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
