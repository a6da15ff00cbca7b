package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

const defaultAnswerPrompt = `You answer questions about the user's documents using only the numbered excerpts provided.
Cite excerpts inline as [1], [2] and so on. If the excerpts do not contain the answer, say that you could not find it.
Be concise and accurate.`

// PromptStore reads the answer prompt from <dir>/answer_system.txt.
// The file is read on every Load, so edits apply to a running MCP server.
type PromptStore struct {
	dir string
}

// NewPromptStore uses dir, or ~/.kbase/prompts when dir is empty.
// Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".kbase", "prompts")
	}
	return &PromptStore{dir: dir}, nil
}

func (s *PromptStore) Dir() string { return s.dir }

// Load returns the user's prompt text. A missing file is created from the
// default; an empty or unwritable one yields the default.
func (s *PromptStore) Load(name string) (string, error) {
	if name != driven.PromptAnswerSystem {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	path := filepath.Join(s.dir, name+".txt")
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.seed(path); err != nil {
			logger.Warn("Could not create %s: %v", path, err)
		}
		return defaultAnswerPrompt, nil
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	if prompt := strings.TrimSpace(string(data)); prompt != "" {
		return prompt, nil
	}
	return defaultAnswerPrompt, nil
}

func (s *PromptStore) seed(path string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultAnswerPrompt+"\n"), 0600)
}
