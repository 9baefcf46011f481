package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/sequence"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
)

// Stage layout constants
const (
	stageWidth  = 60
	stageHeight = 12
	meterWidth  = 24
	hpBarWidth  = 16
	feedSize    = 6
)

// Feed keeps the last few observations as readable lines.
// The battle screen installs it as a battle.Sink.
type Feed struct {
	lines []string
	size  int
}

// NewFeed creates a feed holding at most size lines.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = feedSize
	}
	return &Feed{size: size}
}

// Observe implements battle.Sink.
func (f *Feed) Observe(o battle.Observation) {
	if line := describe(o); line != "" {
		f.Add(line)
	}
}

// Add appends a line, dropping the oldest when full.
func (f *Feed) Add(line string) {
	f.lines = append(f.lines, line)
	if len(f.lines) > f.size {
		f.lines = f.lines[len(f.lines)-f.size:]
	}
}

// Lines returns the feed, oldest first.
func (f *Feed) Lines() []string {
	return f.lines
}

// describe turns an observation into a feed line. Noisy observations
// (step installs, streamed responses) produce "".
func describe(o battle.Observation) string {
	switch o := o.(type) {
	case battle.BranchChanged:
		if o.To == sequence.BranchEnd.String() {
			return ""
		}
		return fmt.Sprintf("%s → %s", o.Move, o.To)
	case battle.CheckStarted:
		return fmt.Sprintf("%s check!", strings.ReplaceAll(o.Kind, "_", " "))
	case battle.CheckCompleted:
		if !o.Success {
			return "check failed"
		}
		return fmt.Sprintf("check passed: %s", o.Rank)
	case battle.EffectApplied:
		switch o.Result.Kind {
		case battle.ResultHit:
			return fmt.Sprintf("%s takes %d", o.Target, o.Result.Damage)
		case battle.ResultMiss:
			return fmt.Sprintf("%s dodges", o.Target)
		default:
			return fmt.Sprintf("%s is untouched", o.Target)
		}
	case battle.Interrupted:
		return fmt.Sprintf("%s interrupted by %s", o.Move, o.Kind)
	case battle.ActionEnded:
		return fmt.Sprintf("%s ended on tick %d", o.Move, o.Tick)
	}
	return ""
}

// meter renders progress in [0, 1] as a bar of the given width.
func meter(progress float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(core.ClampF(progress, 0, 1) * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// hpBar renders hit points as a bar of the given width.
func hpBar(hp, maxHP, width int) string {
	if maxHP <= 0 {
		return meter(0, width)
	}
	return meter(float64(hp)/float64(maxHP), width)
}

// plotStage places every entity on a w×h character grid.
// Living entities show the first letter of their name, fallen ones an x.
func plotStage(ents []*battle.Entity, w, h int) [][]rune {
	grid := make([][]rune, h)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", w))
	}
	if h > 0 {
		grid[h-1] = []rune(strings.Repeat("_", w))
	}

	for _, e := range ents {
		pos := e.Position()
		x := core.Clamp(int(math.Round(pos.X)), 0, w-1)
		y := core.Clamp(int(math.Round(pos.Y)), 0, h-1)
		grid[y][x] = glyph(e)
	}
	return grid
}

func glyph(e *battle.Entity) rune {
	if !e.Alive() {
		return 'x'
	}
	for _, r := range e.Name {
		return r
	}
	return '?'
}

// renderStage draws the stage with themed glyphs.
func renderStage(ents []*battle.Entity, user battle.EntityID) string {
	grid := plotStage(ents, stageWidth, stageHeight)
	styles := make(map[rune]lipgloss.Style, len(ents))
	for _, e := range ents {
		style := theme.Foe
		switch {
		case !e.Alive():
			style = theme.Fallen
		case e.ID == user:
			style = theme.Hero
		}
		styles[glyph(e)] = style
	}

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, r := range row {
			switch {
			case r == '_':
				b.WriteString(theme.Ground.Render("_"))
			case r == ' ':
				b.WriteByte(' ')
			default:
				if style, ok := styles[r]; ok {
					b.WriteString(style.Render(string(r)))
				} else {
					b.WriteRune(r)
				}
			}
		}
	}
	return b.String()
}

// renderHP lists every entity with its HP bar and statuses.
func renderHP(ents []*battle.Entity) string {
	var b strings.Builder
	for _, e := range ents {
		style := theme.HPHigh
		if e.HP*3 < e.MaxHP {
			style = theme.HPLow
		}
		if !e.Alive() {
			style = theme.HPEmpty
		}
		fmt.Fprintf(&b, "%-6s %s %3d/%-3d", e.Name, style.Render(hpBar(e.HP, e.MaxHP, hpBarWidth)), e.HP, e.MaxHP)
		for _, s := range []battle.Status{battle.StatusStun, battle.StatusCounter, battle.StatusShield} {
			if e.HasStatus(s) {
				b.WriteString(" " + theme.HUDControls.Render(s.String()))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// renderCheck shows the skill-check meter and the current rank.
func renderCheck(v sequence.View) string {
	if v.CheckKind == "" {
		return theme.HUDControls.Render("no skill check")
	}
	bar := meter(v.Progress, meterWidth)
	if v.Accepting {
		bar = theme.MeterFill.Render(bar)
	} else {
		bar = theme.MeterIdle.Render(bar)
	}
	return fmt.Sprintf("%s %s  rank %s  x%.2f",
		theme.HUDTitle.Render(strings.ReplaceAll(v.CheckKind, "_", " ")),
		bar,
		rankStyle(v.Rank).Render(v.Rank.String()),
		v.Multiplier,
	)
}

func rankStyle(r skillcheck.Rank) lipgloss.Style {
	switch r {
	case skillcheck.RankGreat:
		return theme.RankGreat
	case skillcheck.RankGood:
		return theme.RankGood
	case skillcheck.RankOK:
		return theme.RankOK
	default:
		return theme.RankNone
	}
}

// renderFeed renders the dialogue line and the observation feed.
func renderFeed(line battle.Line, speaking bool, lines []string) string {
	var b strings.Builder
	if speaking {
		b.WriteString(theme.Speaker.Render(line.Speaker+":") + " " + theme.FeedText.Render(line.Text))
	}
	b.WriteByte('\n')
	for _, l := range lines {
		b.WriteString(theme.FeedText.Render("  " + l))
		b.WriteByte('\n')
	}
	return b.String()
}
