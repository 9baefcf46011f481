package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-battle/internal/moves"
	"github.com/vovakirdan/tui-battle/internal/storage"
)

// Stats layout constants
const (
	minWidthForSidebar = 80 // Minimum width to show move list sidebar
	sidebarWidth       = 20 // Width of move list sidebar
	maxActions         = 50 // Max actions to load
)

// StatsSource is the read side of the results store.
type StatsSource interface {
	BestActions(moveID string, limit int) ([]storage.ActionRecord, error)
	GetMoveStats(moveID string) (*storage.MoveStats, error)
	ClearActions(moveID string) error
}

// Ensure Store satisfies StatsSource
var _ StatsSource = (*storage.Store)(nil)

// StatsKeyMap defines the key bindings for the stats screen.
type StatsKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	NextMove key.Binding
	PrevMove key.Binding
	Clear    key.Binding
	Back     key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k StatsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextMove, k.PrevMove, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k StatsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextMove, k.PrevMove},
		{k.Clear, k.Back, k.Quit},
	}
}

// DefaultStatsKeyMap returns default key bindings.
func DefaultStatsKeyMap() StatsKeyMap {
	return StatsKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "prev move"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "next move"),
		),
		NextMove: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next move"),
		),
		PrevMove: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev move"),
		),
		Clear: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear move history"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// StatsModel is the Bubble Tea model for the per-move results screen.
type StatsModel struct {
	moves       []moves.Listing
	moveCursor  int
	source      StatsSource
	actions     []storage.ActionRecord
	summary     *storage.MoveStats
	loadErr     error
	table       table.Model
	help        help.Model
	keys        StatsKeyMap
	width       int
	height      int
	quitting    bool
	goingBack   bool // True if user pressed back (not quit)
	showSidebar bool // Whether to show move list sidebar
}

// NewStatsModel creates a new stats model. A nil source shows empty tables.
func NewStatsModel(source StatsSource, width, height int) StatsModel {
	h := help.New()
	h.ShowAll = false

	m := StatsModel{
		moves:       moves.List(),
		source:      source,
		keys:        DefaultStatsKeyMap(),
		help:        h,
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}

	m.table = m.createTable()
	if len(m.moves) > 0 {
		m.load(m.moves[0].ID)
	}

	return m
}

// createTable creates a new table with appropriate columns.
func (m *StatsModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Rank", Width: 6},
		{Title: "Damage", Width: 7},
		{Title: "Mult", Width: 6},
		{Title: "Outcome", Width: 8},
		{Title: "Date", Width: 13},
	}

	height := m.height - 10 // Leave room for header, summary, help, and margins
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load loads the best actions and the summary for a move.
func (m *StatsModel) load(moveID string) {
	m.actions, m.summary, m.loadErr = nil, nil, nil
	if m.source != nil {
		m.actions, m.loadErr = m.source.BestActions(moveID, maxActions)
		if m.loadErr == nil {
			m.summary, m.loadErr = m.source.GetMoveStats(moveID)
		}
	}
	m.updateTableRows()
}

// updateTableRows updates the table with the loaded actions.
func (m *StatsModel) updateTableRows() {
	rows := make([]table.Row, len(m.actions))
	for i, a := range m.actions {
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			a.Rank.String(),
			fmt.Sprintf("%d", a.Damage),
			fmt.Sprintf("x%.2f", a.Multiplier),
			a.Outcome,
			a.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m StatsModel) currentMove() string {
	if len(m.moves) == 0 {
		return ""
	}
	return m.moves[m.moveCursor].ID
}

// Init initializes the stats model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the stats screen.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextMove), key.Matches(msg, m.keys.Right):
			if len(m.moves) > 0 {
				m.moveCursor = (m.moveCursor + 1) % len(m.moves)
				m.load(m.currentMove())
			}
			return m, nil

		case key.Matches(msg, m.keys.PrevMove), key.Matches(msg, m.keys.Left):
			if len(m.moves) > 0 {
				m.moveCursor--
				if m.moveCursor < 0 {
					m.moveCursor = len(m.moves) - 1
				}
				m.load(m.currentMove())
			}
			return m, nil

		case key.Matches(msg, m.keys.Clear):
			if m.source != nil && len(m.moves) > 0 {
				if err := m.source.ClearActions(m.currentMove()); err != nil {
					m.loadErr = err
					return m, nil
				}
				m.load(m.currentMove())
			}
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the stats screen.
func (m StatsModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	title := "BEST ACTIONS"
	if len(m.moves) > 0 {
		title = fmt.Sprintf("BEST ACTIONS - %s", m.moves[m.moveCursor].Title)
	}
	b.WriteString(titleStyle.Render(centerText(title, m.width)))
	b.WriteString("\n")
	b.WriteString(centerText(m.summaryLine(), m.width))
	b.WriteString("\n\n")

	if m.showSidebar {
		b.WriteString(m.renderWideLayout())
	} else {
		b.WriteString(m.renderNarrowLayout())
	}

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// summaryLine describes the aggregate stats of the selected move.
func (m StatsModel) summaryLine() string {
	if m.loadErr != nil {
		return theme.HPLow.Render("error: " + m.loadErr.Error())
	}
	s := m.summary
	if s == nil || s.Count == 0 {
		return theme.HUDControls.Render("not used yet")
	}
	return theme.HUDValue.Render(fmt.Sprintf(
		"%d uses  %.0f%% success  %d misses  best %s  avg dmg %.1f",
		s.Count, s.SuccessRate()*100, s.Misses, s.BestRank, s.AvgDamage,
	))
}

// renderWideLayout renders the stats with a sidebar for move selection.
func (m StatsModel) renderWideLayout() string {
	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sidebar strings.Builder
	sidebar.WriteString("Moves\n")
	sidebar.WriteString(strings.Repeat("-", sidebarWidth-4))
	sidebar.WriteString("\n")

	for i, mv := range m.moves {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.moveCursor {
			cursor = "> "
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}

		name := mv.Title
		maxLen := sidebarWidth - 6
		if len(name) > maxLen {
			name = name[:maxLen-1] + "."
		}
		sidebar.WriteString(style.Render(cursor + name))
		sidebar.WriteString("\n")
	}

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Render(sidebar.String()),
		"  ",
		tableStyle.Render(m.renderTableContent()),
	)
}

// renderNarrowLayout renders the current move name above the table.
func (m StatsModel) renderNarrowLayout() string {
	var b strings.Builder

	if len(m.moves) > 0 {
		b.WriteString(centerText(fmt.Sprintf("< %s >", m.moves[m.moveCursor].Title), m.width))
		b.WriteString("\n\n")
	}

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	b.WriteString(centerText(tableStyle.Render(m.renderTableContent()), m.width))

	return b.String()
}

// renderTableContent renders the table or empty message.
func (m StatsModel) renderTableContent() string {
	if len(m.actions) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return emptyStyle.Render("No actions recorded yet.\nUse this move in battle to rank it!")
	}

	return m.table.View()
}

// IsGoingBack returns true if user wants to go back to menu.
func (m StatsModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m StatsModel) IsQuitting() bool {
	return m.quitting
}

// RunStats runs the stats screen.
// Returns true if user wants to go back to menu, false if quitting.
func RunStats(source StatsSource, width, height int) (goBack bool, err error) {
	model := NewStatsModel(source, width, height)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m, ok := finalModel.(StatsModel)
	if !ok {
		return false, nil
	}

	return m.IsGoingBack(), nil
}
