package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
	"github.com/matzehuels/orgchart/pkg/core/viewport"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/view"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listMatchStyle    = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	listNewStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	statusErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

type browserKeys struct {
	Up, Down, Toggle, Hide, ResetHidden  key.Binding
	ExpandAll, CollapseAll, Compact      key.Binding
	Avatars, Orientation, Search, Export key.Binding
	Reload, Quit                         key.Binding
}

var keys = browserKeys{
	Up:          key.NewBinding(key.WithKeys("up", "k")),
	Down:        key.NewBinding(key.WithKeys("down", "j")),
	Toggle:      key.NewBinding(key.WithKeys("enter", " ")),
	Hide:        key.NewBinding(key.WithKeys("h")),
	ResetHidden: key.NewBinding(key.WithKeys("H")),
	ExpandAll:   key.NewBinding(key.WithKeys("e")),
	CollapseAll: key.NewBinding(key.WithKeys("c")),
	Compact:     key.NewBinding(key.WithKeys("m")),
	Avatars:     key.NewBinding(key.WithKeys("p")),
	Orientation: key.NewBinding(key.WithKeys("o")),
	Search:      key.NewBinding(key.WithKeys("/")),
	Export:      key.NewBinding(key.WithKeys("x")),
	Reload:      key.NewBinding(key.WithKeys("r")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// =============================================================================
// browser - Interactive chart outline
// =============================================================================

// browser is the bubbletea model of `orgchart browse`. Chart state lives in
// the view controller; the model keeps a snapshot of its rows.
type browser struct {
	ctx  context.Context
	ctrl *view.Controller

	rows   []view.Row
	cursor int
	offset int
	height int

	searching bool
	input     textinput.Model
	results   []org.Summary
	selected  int

	status string
	err    error
}

// actionMsg reports the end of a controller action.
type actionMsg struct {
	status string
	err    error
	focus  string
}

type searchMsg struct {
	results []org.Summary
	err     error
}

func newBrowser(ctx context.Context, ctrl *view.Controller) browser {
	ti := textinput.New()
	ti.Placeholder = "name, title or department"
	ti.CharLimit = 80
	ti.Width = 40
	return browser{
		ctx:    ctx,
		ctrl:   ctrl,
		rows:   ctrl.Rows(),
		height: 20,
		input:  ti,
	}
}

func (m browser) Init() tea.Cmd { return nil }

// run performs fn off the update loop and reports back with an actionMsg.
func (m browser) run(status string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{status: status, err: fn()}
	}
}

func (m browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(5, msg.Height-6)
		m.ctrl.Resize(viewportSize(msg.Width, msg.Height))
		return m, nil
	case actionMsg:
		m.rows = m.ctrl.Rows()
		m.status, m.err = msg.status, msg.err
		if msg.focus != "" {
			m.moveTo(msg.focus)
		}
		m.clamp()
		return m, nil
	case searchMsg:
		m.results, m.err, m.selected = msg.results, msg.err, 0
		if len(m.results) == 0 && msg.err == nil {
			m.status = "No matches"
		}
		return m, nil
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m browser) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	current := ""
	if m.cursor < len(m.rows) {
		current = m.rows[m.cursor].ID
	}
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.cursor--
		m.clamp()
	case key.Matches(msg, keys.Down):
		m.cursor++
		m.clamp()
	case key.Matches(msg, keys.Toggle):
		return m, m.run("", func() error { m.ctrl.Toggle(current); return nil })
	case key.Matches(msg, keys.Hide):
		return m, m.run("", func() error { m.ctrl.ToggleHidden(current); return nil })
	case key.Matches(msg, keys.ResetHidden):
		return m, m.run("All subtrees shown", func() error { m.ctrl.ResetHidden(); return nil })
	case key.Matches(msg, keys.ExpandAll):
		return m, m.run("Expanded all", func() error { m.ctrl.ExpandAll(); return nil })
	case key.Matches(msg, keys.CollapseAll):
		return m, m.run("Collapsed all", func() error { m.ctrl.CollapseAll(); return nil })
	case key.Matches(msg, keys.Compact):
		return m, m.run("", func() error { return m.ctrl.ToggleCompact(m.ctx) })
	case key.Matches(msg, keys.Avatars):
		return m, m.run("", func() error { m.ctrl.ToggleProfileImages(); return nil })
	case key.Matches(msg, keys.Orientation):
		next := layout.Horizontal
		if m.ctrl.Viewport().Orientation() == layout.Horizontal {
			next = layout.Vertical
		}
		return m, m.run("Orientation: "+next.String(), func() error { m.ctrl.SetOrientation(next); return nil })
	case key.Matches(msg, keys.Reload):
		return m, m.run("Reloaded", func() error { return m.ctrl.Reload(m.ctx) })
	case key.Matches(msg, keys.Export):
		return m, m.exportCmd()
	case key.Matches(msg, keys.Search):
		m.searching = true
		m.results = nil
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m browser) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.searching = false
		m.input.Blur()
		return m, nil
	case "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down":
		if m.selected < len(m.results)-1 {
			m.selected++
		}
		return m, nil
	case "enter":
		if len(m.results) > 0 {
			id := m.results[m.selected].ID
			m.searching = false
			m.input.Blur()
			return m, func() tea.Msg {
				if !m.ctrl.SearchSelect(id) {
					return actionMsg{status: "Match is inside a collapsed team"}
				}
				return actionMsg{focus: id}
			}
		}
		q := m.input.Value()
		return m, func() tea.Msg {
			res, err := m.ctrl.Search(m.ctx, q)
			return searchMsg{results: res, err: err}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.results = nil
	return m, cmd
}

func (m browser) exportCmd() tea.Cmd {
	return func() tea.Msg {
		art, err := m.ctrl.Export(m.ctx, "svg", false)
		if err != nil {
			return actionMsg{err: err}
		}
		if err := os.WriteFile(art.Filename, art.Data, 0o644); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "Exported " + art.Filename}
	}
}

func (m *browser) moveTo(id string) {
	for i, r := range m.rows {
		if r.ID == id {
			m.cursor = i
			return
		}
	}
}

// clamp keeps the cursor on a row and inside the scroll window.
func (m *browser) clamp() {
	m.cursor = max(0, min(m.cursor, len(m.rows)-1))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m browser) View() string {
	var b strings.Builder

	st := m.ctrl.Settings()
	b.WriteString(StyleTitle.Render(st.ChartTitle))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(m.modeLine()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  ⏎ expand  h hide  H show all  e/c expand/collapse all  m compact  p photos  o orientation  / search  x export  r reload  q quit"))
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		for i, r := range m.results {
			line := fmt.Sprintf("%s · %s", r.Name, r.Title)
			if i == m.selected {
				b.WriteString(listSelectedStyle.Render("▸ " + line))
			} else {
				b.WriteString(listNormalStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
		return b.String()
	}

	end := min(len(m.rows), m.offset+m.height)
	for i := m.offset; i < end; i++ {
		b.WriteString(renderRow(m.rows[i], i == m.cursor))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(statusErrorStyle.Render(iconError + " " + m.err.Error()))
	case m.status != "":
		b.WriteString(listDimStyle.Render(m.status))
	default:
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))
	}
	return b.String()
}

func (m browser) modeLine() string {
	parts := []string{m.ctrl.Viewport().Orientation().String()}
	if m.ctrl.CompactEnabled() {
		parts = append(parts, "compact")
	}
	if m.ctrl.AvatarsEnabled() {
		parts = append(parts, "photos")
	}
	if n := len(m.ctrl.Hidden()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d hidden", n))
	}
	return strings.Join(parts, " · ")
}

// renderRow draws one outline line: indent, expander, name and title.
func renderRow(r view.Row, current bool) string {
	marker := "  "
	if current {
		marker = "▸ "
	}
	expander := "  "
	switch {
	case r.Reports > 0 && r.Collapsed:
		expander = "+ "
	case r.Reports > 0:
		expander = "− "
	}
	label := r.Name
	if r.Title != "" {
		label += " · " + r.Title
	}
	if r.Collapsed {
		label += fmt.Sprintf(" (%d)", r.Reports)
	}
	line := marker + strings.Repeat("  ", r.Depth) + expander + label

	switch {
	case r.Hidden:
		return listDimStyle.Render(line + " [hidden]")
	case r.Highlighted:
		return listMatchStyle.Render(line)
	case current:
		return listSelectedStyle.Render(line)
	case r.New:
		return listNewStyle.Render(line)
	default:
		return listNormalStyle.Render(line)
	}
}

// viewportSize maps a terminal size to chart pixels, one cell being
// roughly 8×16.
func viewportSize(cols, rows int) viewport.Size {
	return viewport.Size{W: float64(cols * 8), H: float64(rows * 16)}
}
