package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbase/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/kbase/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Retrieval: &MockRetrievalService{hits: []domain.Hit{
			{DocumentID: "doc1", DocumentName: "guide.pdf", ChunkID: "doc1:0", Score: 0.8, PageStart: 1, PageEnd: 1, Text: "hello"},
		}},
		Answer:   &MockAnswerService{},
		Document: &MockDocumentService{},
	}
}

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

// run applies msg and then follows the chain of commands it produces.
// Callers must not use it for messages that start the cursor blink.
func run(app *App, msg tea.Msg) {
	_, cmd := app.Update(msg)
	for i := 0; cmd != nil && i < 10; i++ {
		next := cmd()
		if next == nil {
			return
		}
		_, cmd = app.Update(next)
	}
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{})
	assert.ErrorIs(t, err, ErrMissingRetrievalService)
	assert.Nil(t, app)

	app, err = NewApp(nil)
	assert.ErrorIs(t, err, ErrMissingRetrievalService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())
	ctx := context.WithValue(context.Background(), struct{}{}, "v")

	assert.Same(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "kbase")
}

func TestApp_SearchFlow(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	app.Update(messages.ViewChanged{View: messages.ViewSearch})
	assert.Equal(t, messages.ViewSearch, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "guide.pdf")

	run(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, messages.ViewDocContent, app.CurrentView())
	assert.Contains(t, app.View(), "[p. 1]")

	run(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
}

func TestApp_SearchError(t *testing.T) {
	ports := newTestPorts()
	ports.Retrieval = &MockRetrievalService{err: domain.ErrEmbeddingUnavailable}
	app := newTestApp(t, ports)

	app.Update(messages.ViewChanged{View: messages.ViewSearch})
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.ErrorIs(t, app.Err(), domain.ErrEmbeddingUnavailable)
}

func TestApp_AskFlow(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	app.Update(messages.ViewChanged{View: messages.ViewAsk})
	assert.Equal(t, messages.ViewAsk, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("why")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Contains(t, ansi.Strip(app.View()), "answer to why")
}

func TestApp_AskUnavailable(t *testing.T) {
	ports := newTestPorts()
	ports.Answer = nil
	app := newTestApp(t, ports)

	run(app, messages.ViewChanged{View: messages.ViewAsk})

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.NotContains(t, app.View(), "Ask")
}

func TestApp_DocumentsFlow(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	run(app, messages.ViewChanged{View: messages.ViewDocuments})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.Contains(t, app.View(), "guide.pdf")

	run(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, messages.ViewDocContent, app.CurrentView())

	run(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())

	run(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_DocumentsUnavailable(t *testing.T) {
	ports := newTestPorts()
	ports.Document = nil
	app := newTestApp(t, ports)

	run(app, messages.ViewChanged{View: messages.ViewDocuments})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())

	app.Update(messages.DocumentSelected{Document: domain.Document{ID: "x"}})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	app.Update(messages.ViewChanged{View: messages.ViewHelp})
	out := app.View()
	assert.Contains(t, out, "Help")
	assert.Contains(t, out, "new query")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)

	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	app.Update(messages.ErrorOccurred{Err: domain.ErrStorage})

	assert.ErrorIs(t, app.Err(), domain.ErrStorage)
}
