package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-battle/internal/core"
)

// KeyMapper translates Bubble Tea key messages to battle actions.
// This centralizes key bindings and makes them testable.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey translates a key message to an action.
// Returns the action (may be ActionNone) and whether it's a quit request.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (action core.Action, isQuit bool) {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		return core.ActionQuit, true
	}

	switch key {
	case " ", "z":
		return core.ActionPrimary, false
	case "x":
		return core.ActionSecondary, false
	case "w", "up":
		return core.ActionUp, false
	case "s", "down":
		return core.ActionDown, false
	case "a", "left":
		return core.ActionLeft, false
	case "d", "right":
		return core.ActionRight, false
	case "enter":
		return core.ActionConfirm, false
	case "b", "esc":
		return core.ActionBack, false
	case "p":
		return core.ActionPause, false
	case "r":
		return core.ActionRestart, false
	}

	return core.ActionNone, false
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionLeft  // Previous difficulty
	MenuActionRight // Next difficulty
	MenuActionSelect
	MenuActionBack
	MenuActionStats
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	key := msg.String()

	switch key {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k": // vim-style k for up
		return MenuActionUp
	case "s", "down", "j": // vim-style j for down
		return MenuActionDown
	case "a", "left", "h":
		return MenuActionLeft
	case "d", "right", "l":
		return MenuActionRight
	case "enter", " ":
		return MenuActionSelect
	case "b", "esc":
		return MenuActionBack
	case "tab":
		return MenuActionStats
	}

	return MenuActionNone
}

// BattleKeyMap describes the battle screen bindings for the help bar.
type BattleKeyMap struct {
	Act      key.Binding
	Alt      key.Binding
	Pause    key.Binding
	NextTurn key.Binding
	Restart  key.Binding
	Back     key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k BattleKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Act, k.Pause, k.NextTurn, k.Restart, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k BattleKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Act, k.Alt, k.Pause},
		{k.NextTurn, k.Restart, k.Back, k.Quit},
	}
}

// DefaultBattleKeyMap returns default key bindings.
func DefaultBattleKeyMap() BattleKeyMap {
	return BattleKeyMap{
		Act: key.NewBinding(
			key.WithKeys(" ", "z"),
			key.WithHelp("space", "act (tap twice to hold/release)"),
		),
		Alt: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "alt button"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause"),
		),
		NextTurn: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "skip line / next turn"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "new battle"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "moves"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
