// Package search provides the query and question views for the TUI.
package search

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/kbase/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/kbase/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/kbase/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/kbase/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/kbase/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/kbase/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driving"
)

// Mode selects between ranking passages and answering questions.
type Mode int

const (
	// ModeSearch shows ranked hits for a query.
	ModeSearch Mode = iota
	// ModeAsk shows a generated answer and its sources.
	ModeAsk
)

// View is the input, results list and status bar for one mode.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.HitList
	statusbar *status.Bar

	mode      Mode
	retrieval driving.RetrievalService
	answers   driving.AnswerService
	k         int
	ctx       context.Context

	answer   *domain.Answer
	rendered string

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true while typing, false while navigating results
}

// NewView creates a search view. k is the number of passages to request;
// zero or less means domain.DefaultResults.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	mode Mode,
	retrieval driving.RetrievalService,
	answers driving.AnswerService,
	k int,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if k <= 0 {
		k = domain.DefaultResults
	}

	label, placeholder := "Search", "Enter a query..."
	if mode == ModeAsk {
		label, placeholder = "Ask", "Ask a question..."
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s, label, placeholder),
		list:       list.NewHitList(s),
		statusbar:  status.NewBar(s, km),
		mode:       mode,
		retrieval:  retrieval,
		answers:    answers,
		k:          k,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(msg.String(), v.keymap.NewQuery):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	case keymap.Matches(msg.String(), v.keymap.Select):
		hit := v.list.SelectedHit()
		if hit == nil {
			return v, nil
		}
		doc := domain.Document{ID: hit.DocumentID, Name: hit.DocumentName}
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: doc}
		}
	}
	return v, nil
}

// submit starts a search or answer for the current input.
func (v *View) submit() tea.Cmd {
	query := strings.TrimSpace(v.input.Value())
	if query == "" {
		return nil
	}

	v.err = nil
	v.focusInput = false
	v.input.Blur()

	if v.mode == ModeAsk {
		v.statusbar.SetState(status.StateAsking)
		return v.performAsk(query)
	}
	v.statusbar.SetState(status.StateSearching)
	return v.performSearch(query)
}

func (v *View) performSearch(query string) tea.Cmd {
	retrieval, ctx, k := v.retrieval, v.ctx, v.k
	return func() tea.Msg {
		if retrieval == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		hits, err := retrieval.Search(ctx, query, domain.SearchOptions{K: k})
		return messages.SearchCompleted{Query: query, Hits: hits, Err: err}
	}
}

func (v *View) performAsk(question string) tea.Cmd {
	answers, ctx, k := v.answers, v.ctx, v.k
	return func() tea.Msg {
		if answers == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		answer, err := answers.Ask(ctx, question, driving.AskOptions{
			SearchOptions: domain.SearchOptions{K: k},
		})
		return messages.AnswerCompleted{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetHits(msg.Hits)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetMessage("")
	v.statusbar.SetResultCount(len(msg.Hits))
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.answer = msg.Answer
	v.rendered = v.renderAnswer(msg.Answer.Text)
	v.list.SetHits(msg.Answer.Hits)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Answer.Hits))
	if msg.Answer.Grounded {
		v.statusbar.SetMessage("Answered from " + pluralSources(len(msg.Answer.Hits)))
	} else {
		v.statusbar.SetMessage("Answered without document context")
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.focusInput = true
	v.input.Focus()
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// renderAnswer formats markdown for the terminal, falling back to the raw text.
func (v *View) renderAnswer(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(v.width-4, 40)),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

func pluralSources(n int) string {
	if n == 1 {
		return "1 source"
	}
	return fmt.Sprintf("%d sources", n)
}

// View renders the view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("kbase"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.mode == ModeAsk && v.answer != nil && v.err == nil {
		sections = append(sections, v.styles.Answer.Render(v.rendered), "")
		if !v.answer.Grounded {
			sections = append(sections, v.styles.Warning.Render("No document context was used for this answer."))
		}
	}

	if v.mode == ModeSearch || (v.answer != nil && v.answer.Grounded) {
		sections = append(sections, v.list.View())
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	listHeight := height - 8
	if v.mode == ModeAsk {
		listHeight = height / 3
	}
	v.list.SetDimensions(width, max(listHeight, 4))
}

// Mode returns the view mode.
func (v *View) Mode() Mode {
	return v.mode
}

// Hits returns the hits currently displayed.
func (v *View) Hits() []domain.Hit {
	return v.list.Hits()
}

// Answer returns the last answer, or nil.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// InputFocused reports whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset clears the input, results and errors.
func (v *View) Reset() tea.Cmd {
	v.input.SetValue("")
	v.list.SetHits(nil)
	v.answer = nil
	v.rendered = ""
	v.err = nil
	v.focusInput = true
	v.statusbar.Clear()
	return v.input.Focus()
}
