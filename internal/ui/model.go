package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"quickfind/internal/config"
	"quickfind/internal/domain"
	"quickfind/internal/search"
)

// keyMap defines the key bindings for the search box
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Refresh key.Binding
	Clear   key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "search remote")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Refresh, k.Clear, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Open}, {k.Refresh, k.Clear, k.Quit}}
}

// Model represents the UI state
type Model struct {
	coord  *search.Coordinator[domain.Bookmark]
	cfg    *config.Config
	styles *Styles
	keys   keyMap

	input textinput.Model
	spin  spinner.Model
	help  help.Model

	snap     search.Snapshot[domain.Bookmark]
	hasSnap  bool
	typed    bool
	selected int

	width  int
	height int

	// Program reference for terminal management around the pager
	program *tea.Program
	pager   *PagerOps
}

// NewModel creates a new UI model
func NewModel(coord *search.Coordinator[domain.Bookmark], cfg *config.Config) *Model {
	ti := textinput.New()
	ti.Placeholder = "type to search"
	ti.Prompt = "/ "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		coord:  coord,
		cfg:    cfg,
		styles: NewStyles(),
		keys:   defaultKeyMap(),
		input:  ti,
		spin:   sp,
		help:   help.New(),
	}
}

// SetProgram gives the model a program handle so the pager can release and
// restore the terminal.
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.pager = NewPagerOps(p)
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.cfg.UI.ShowLocalOnStart {
		// Seed the list with the full local collection before any input.
		m.coord.Search("")
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case SnapshotMsg:
		m.snap = msg.Snapshot
		m.hasSnap = true
		if m.selected >= len(m.snap.Items) {
			m.selected = 0
		}
		if m.snap.Loading {
			return m, m.spin.Tick
		}
		return m, nil

	case StreamClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		if !m.snap.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case pagerDoneMsg:
		if msg.err != nil {
			m.snap.Err = fmt.Sprintf("pager: %v", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.snap.Items)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		if m.pager != nil && m.selected < len(m.snap.Items) {
			item := m.snap.Items[m.selected]
			return m, func() tea.Msg {
				return pagerDoneMsg{err: m.pager.ShowDetail(item)}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		query := m.input.Value()
		m.typed = true
		m.coord.ForceRemoteSearch(query)
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.input.Reset()
		m.typed = false
		m.selected = 0
		m.coord.Search("")
		return m, nil
	}

	// Everything else goes to the text input; a changed value is a new
	// search.
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.typed = true
		m.selected = 0
		m.coord.Search(after)
	}
	return m, cmd
}

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("quickfind"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.renderResults())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))

	return b.String()
}

func (m *Model) renderResults() string {
	if !m.hasSnap {
		return m.styles.Dim.Render("  start typing to search")
	}

	if m.snap.Loading && m.snap.Source == search.SourceRemote {
		return m.styles.Loading.Render(fmt.Sprintf("%s searching remotely for %q…", m.spin.View(), m.snap.Query))
	}

	if m.snap.Err != "" {
		return m.styles.Error.Render("  ✗ "+m.snap.Err) + "\n" +
			m.styles.Dim.Render("  ctrl+r to retry")
	}

	if len(m.snap.Items) == 0 {
		if m.typed {
			return m.styles.Dim.Render(fmt.Sprintf("  no results for %q", m.snap.Query))
		}
		return m.styles.Dim.Render("  nothing here yet")
	}

	var b strings.Builder
	for i, item := range m.snap.Items {
		b.WriteString(m.renderItem(item, i == m.selected))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Status.Render(fmt.Sprintf("%d result(s) · %s", len(m.snap.Items), m.sourceLabel())))
	return b.String()
}

func (m *Model) renderItem(item domain.Bookmark, selected bool) string {
	line := fmt.Sprintf("%s  %s", m.styles.Name.Render(item.Name), m.styles.URL.Render(item.URL))
	if len(item.Tags) > 0 {
		line += "  " + m.styles.Tag.Render("#"+strings.Join(item.Tags, " #"))
	}
	if selected {
		return m.styles.Selected.Render("▸ ") + line
	}
	return "  " + line
}

func (m *Model) sourceLabel() string {
	switch m.snap.Source {
	case search.SourceLocal:
		return m.styles.SourceTag.Render("local")
	case search.SourceRemote:
		return m.styles.SourceTag.Render("remote")
	default:
		return m.styles.SourceTag.Render("none")
	}
}

var _ tea.Model = (*Model)(nil)
