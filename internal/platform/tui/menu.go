package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-battle/internal/config"
	"github.com/vovakirdan/tui-battle/internal/moves"
)

// MenuItem represents a selectable move in the menu.
type MenuItem struct {
	MoveID      string
	Title       string
	Description string
	Check       string
	Source      string
}

// MenuModel is the Bubble Tea model for the move picker.
type MenuModel struct {
	items     []MenuItem
	cursor    int
	preset    int // Index into config.Presets
	width     int
	height    int
	config    config.Config
	keyMapper *KeyMapper
	quitting  bool
	selected  *MenuItem // Set when user selects a move
	openStats bool      // True if user pressed Tab for stats
}

// NewMenuModel creates a new menu model.
func NewMenuModel(cfg config.Config) MenuModel {
	listings := moves.List()
	items := make([]MenuItem, 0, len(listings))

	for _, l := range listings {
		item := MenuItem{
			MoveID: l.ID,
			Title:  l.Title,
			Check:  l.Check,
			Source: l.Source,
		}
		if m, err := moves.Create(l.ID); err == nil {
			item.Description = m.Description()
		}
		items = append(items, item)
	}

	preset := 0
	for i, p := range config.Presets {
		if p == cfg.Difficulty.Preset {
			preset = i
		}
	}

	return MenuModel{
		items:     items,
		preset:    preset,
		width:     cfg.Runtime.ScreenW,
		height:    cfg.Runtime.ScreenH,
		config:    cfg,
		keyMapper: NewKeyMapper(),
	}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.config.Runtime.ScreenW = msg.Width
		m.config.Runtime.ScreenH = msg.Height
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keyMapper.MapKeyToMenuAction(msg)

	switch action {
	case MenuActionQuit, MenuActionBack:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case MenuActionLeft:
		m.preset = (m.preset + len(config.Presets) - 1) % len(config.Presets)
		config.ApplyPreset(&m.config, config.Presets[m.preset])

	case MenuActionRight:
		m.preset = (m.preset + 1) % len(config.Presets)
		config.ApplyPreset(&m.config, config.Presets[m.preset])

	case MenuActionSelect:
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
			return m, tea.Quit // Exit menu to start the battle
		}

	case MenuActionStats:
		m.openStats = true
		return m, tea.Quit // Exit menu to show stats
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText(theme.MenuTitle.Render("  B A T T L E  "), m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Select a move", m.width))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		style := theme.MenuItemNormal
		if i == m.cursor {
			cursor = "> "
			style = theme.MenuItemActive
		}

		check := ""
		if item.Check != "" {
			check = " [" + strings.ReplaceAll(item.Check, "_", " ") + "]"
		}
		line := fmt.Sprintf("%s%-10s%s", cursor, item.Title, check)
		b.WriteString(centerText(style.Render(line), m.width))
		b.WriteString("\n")
	}

	if len(m.items) > 0 {
		b.WriteString("\n")
		b.WriteString(centerText(theme.MenuDescription.Render(m.items[m.cursor].Description), m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	difficulty := fmt.Sprintf("< difficulty: %s >", config.Presets[m.preset])
	b.WriteString(centerText(theme.HUDValue.Render(difficulty), m.width))
	b.WriteString("\n\n")

	controls := "Up/Down: Navigate  |  Left/Right: Difficulty  |  Enter: Fight  |  Tab: Stats  |  Q: Quit"
	b.WriteString(centerText(theme.HUDControls.Render(controls), m.width))
	b.WriteString("\n")

	return b.String()
}

// Selected returns the selected menu item, or nil if none selected.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// WantsStats returns true if user requested the stats screen.
func (m MenuModel) WantsStats() bool {
	return m.openStats
}

// Config returns the current config, updated by resizes and the
// difficulty selector.
func (m MenuModel) Config() config.Config {
	return m.config
}

// centerText centers text within given width. Styled text is measured by
// its printable width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}

// MenuResult holds the result of running the menu.
type MenuResult struct {
	MoveID     string
	Config     config.Config
	WantsStats bool
	Quit       bool
}

// RunMenu runs the menu and returns the selection result.
func RunMenu(cfg config.Config) (MenuResult, error) {
	model := NewMenuModel(cfg)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return MenuResult{Config: cfg}, err
	}

	m, ok := finalModel.(MenuModel)
	if !ok {
		return MenuResult{Config: cfg, Quit: true}, nil
	}

	result := MenuResult{
		Config: m.Config(),
	}

	if m.WantsStats() {
		result.WantsStats = true
		return result, nil
	}

	if m.IsQuitting() {
		result.Quit = true
		return result, nil
	}

	if m.Selected() != nil {
		result.MoveID = m.Selected().MoveID
	} else {
		result.Quit = true
	}

	return result, nil
}
