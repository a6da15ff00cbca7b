// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/kbase/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/services"
)

// linesPerHit is the rendered height of one hit: heading plus snippet.
const linesPerHit = 2

// HitList displays ranked retrieval hits in a navigable list.
type HitList struct {
	hits     []domain.Hit
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewHitList creates a new hit list component.
func NewHitList(s *styles.Styles) *HitList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &HitList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the hit list.
func (r *HitList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *HitList) Update(msg tea.Msg) (*HitList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the hit list.
func (r *HitList) View() string {
	if len(r.hits) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.hits)*linesPerHit+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.hits))), "")

	visible := max((r.height-2)/linesPerHit, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.hits))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderHit(i, &r.hits[i]))
	}

	return strings.Join(lines, "\n")
}

func (r *HitList) renderHit(index int, hit *domain.Hit) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	name := truncate(hit.DocumentName, max(r.width-30, 10))
	pages := services.PageLabel(hit.PageStart, hit.PageEnd)
	score := fmt.Sprintf("%.3f", hit.Score)

	var heading string
	if index == r.selected {
		heading = r.styles.Selected.Render(fmt.Sprintf("%s[%d] %s (%s)  %s", indicator, index+1, name, pages, score))
	} else {
		heading = r.styles.Normal.Render(fmt.Sprintf("%s[%d] %s ", indicator, index+1, name)) +
			r.styles.Pages.Render("("+pages+")") + "  " +
			r.styles.Score.Render(score)
	}

	text := strings.Join(strings.Fields(hit.Text), " ")
	snippet := r.styles.Muted.Render("    " + truncate(text, max(r.width-6, 20)))

	return heading + "\n" + snippet
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetHits replaces the hits and resets the selection.
func (r *HitList) SetHits(hits []domain.Hit) {
	r.hits = hits
	r.selected = 0
}

// Hits returns the current hits.
func (r *HitList) Hits() []domain.Hit {
	return r.hits
}

// Selected returns the index of the selected hit.
func (r *HitList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *HitList) SetSelected(index int) {
	if index >= 0 && index < len(r.hits) {
		r.selected = index
	}
}

// SelectedHit returns the currently selected hit, or nil if none.
func (r *HitList) SelectedHit() *domain.Hit {
	if r.selected < 0 || r.selected >= len(r.hits) {
		return nil
	}
	return &r.hits[r.selected]
}

// MoveUp moves selection up.
func (r *HitList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *HitList) MoveDown() {
	if r.selected < len(r.hits)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *HitList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of hits.
func (r *HitList) Count() int {
	return len(r.hits)
}

// IsEmpty returns whether the list is empty.
func (r *HitList) IsEmpty() bool {
	return len(r.hits) == 0
}
