package core

// Action represents a semantic input, abstracted from physical key presses.
// Skill checks are configured against actions rather than raw keys.
type Action int

const (
	ActionNone      Action = iota
	ActionPrimary          // Space, Z - the main skill-check button
	ActionSecondary        // X - alternate skill-check button
	ActionUp               // W, Up arrow
	ActionDown             // S, Down arrow
	ActionLeft             // A, Left arrow
	ActionRight            // D, Right arrow
	ActionConfirm          // Enter - confirm selection in menu
	ActionBack             // B, Escape - go back to menu
	ActionRestart          // R key - rerun the action after it ended
	ActionQuit             // Q, Ctrl+C - exit
	ActionPause            // P - pause/unpause active time
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionPrimary:
		return "Primary"
	case ActionSecondary:
		return "Secondary"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionConfirm:
		return "Confirm"
	case ActionBack:
		return "Back"
	case ActionRestart:
		return "Restart"
	case ActionQuit:
		return "Quit"
	case ActionPause:
		return "Pause"
	default:
		return "Unknown"
	}
}

// ParseAction converts a config name ("primary", "secondary", ...) to an Action.
func ParseAction(name string) (Action, bool) {
	switch name {
	case "", "primary":
		return ActionPrimary, true
	case "secondary":
		return ActionSecondary, true
	case "up":
		return ActionUp, true
	case "down":
		return ActionDown, true
	case "left":
		return ActionLeft, true
	case "right":
		return ActionRight, true
	default:
		return ActionNone, false
	}
}

// InputFrame represents the input state during one simulation tick.
//
// Pressed and Released are edges that happened this tick; Held is the level
// state and survives Clear so hold-and-release checks can measure duration.
type InputFrame struct {
	Pressed  map[Action]bool
	Released map[Action]bool
	Held     map[Action]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Pressed:  make(map[Action]bool),
		Released: make(map[Action]bool),
		Held:     make(map[Action]bool),
	}
}

func (f *InputFrame) ensure() {
	if f.Pressed == nil {
		f.Pressed = make(map[Action]bool)
	}
	if f.Released == nil {
		f.Released = make(map[Action]bool)
	}
	if f.Held == nil {
		f.Held = make(map[Action]bool)
	}
}

// Set marks an action as pressed this frame without holding it.
func (f *InputFrame) Set(a Action) {
	f.ensure()
	f.Pressed[a] = true
}

// Has returns true if the given action was pressed this frame.
func (f InputFrame) Has(a Action) bool {
	return f.Pressed[a]
}

// Hold marks an action as held. The first Hold also counts as a press.
func (f *InputFrame) Hold(a Action) {
	f.ensure()
	if !f.Held[a] {
		f.Pressed[a] = true
	}
	f.Held[a] = true
}

// Release ends a hold and records the release edge.
func (f *InputFrame) Release(a Action) {
	f.ensure()
	if f.Held[a] {
		f.Released[a] = true
	}
	delete(f.Held, a)
}

// IsHeld reports whether the action is currently held down.
func (f InputFrame) IsHeld(a Action) bool {
	return f.Held[a]
}

// WasReleased reports whether the action was released this frame.
func (f InputFrame) WasReleased(a Action) bool {
	return f.Released[a]
}

// Clear resets the per-tick edges for the next frame. Holds are kept.
func (f *InputFrame) Clear() {
	clear(f.Pressed)
	clear(f.Released)
}

// Reset drops every edge and hold.
func (f *InputFrame) Reset() {
	f.Clear()
	clear(f.Held)
}

// Clone creates a copy of this input frame.
func (f InputFrame) Clone() InputFrame {
	clone := NewInputFrame()
	for k, v := range f.Pressed {
		clone.Pressed[k] = v
	}
	for k, v := range f.Released {
		clone.Released[k] = v
	}
	for k, v := range f.Held {
		clone.Held[k] = v
	}
	return clone
}
