package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/config"
	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/moves"
	"github.com/vovakirdan/tui-battle/internal/sequence"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
)

// BattleOptions configures a battle screen.
type BattleOptions struct {
	Move   string
	Config config.Config
	Saver  moves.ResultSaver // Optional
	Logger *log.Logger       // Receives debug observations; discarded when nil
	// ExitOnBack quits the program on Back instead of flagging BackToMenu.
	ExitOnBack bool
}

// BattleModel is the Bubble Tea model running one move on the stage.
// Each tick advances the battle clock and feeds the collected input frame
// to the sequence.
type BattleModel struct {
	opts       BattleOptions
	move       moves.Move
	policy     sequence.InputPolicy
	difficulty *config.DifficultyManager
	logger     *log.Logger
	keyMapper  *KeyMapper
	keys       BattleKeyMap
	help       help.Model

	ctx     *battle.Context
	seq     *sequence.Sequence
	frame   core.InputFrame
	feed    *Feed
	seed    int64
	scale   float64
	started bool // First tick of the current action applied
	wall    time.Duration
	report  *moves.Report

	wins       int
	turns      int
	width      int
	height     int
	err        error
	quitting   bool
	backToMenu bool
}

// NewBattleModel creates a battle screen with a fresh stage.
func NewBattleModel(opts BattleOptions) (BattleModel, error) {
	move, err := moves.Create(opts.Move)
	if err != nil {
		return BattleModel{}, err
	}
	policy, err := opts.Config.InputPolicy()
	if err != nil {
		return BattleModel{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	h := help.New()
	h.ShowAll = false

	m := BattleModel{
		opts:       opts,
		move:       move,
		policy:     policy,
		difficulty: config.NewDifficultyManager(opts.Config.Difficulty),
		logger:     logger,
		keyMapper:  NewKeyMapper(),
		keys:       DefaultBattleKeyMap(),
		help:       h,
		width:      opts.Config.Runtime.ScreenW,
		height:     opts.Config.Runtime.ScreenH,
	}
	if err := m.newBattle(); err != nil {
		return BattleModel{}, err
	}
	return m, nil
}

// newBattle resets the stage. The configured seed is used for the first
// battle only; later battles reseed from the wall clock.
func (m *BattleModel) newBattle() error {
	seed := m.opts.Config.Runtime.Seed
	if seed == 0 || m.ctx != nil {
		seed = time.Now().UnixNano()
	}
	m.seed = seed
	m.ctx = moves.NewStage(seed)
	m.ctx.Logger = m.logger
	m.feed = NewFeed(feedSize)
	m.ctx.Sink = battle.MultiSink{m.feed, battle.LogSink{Logger: m.logger}}
	m.turns = 0
	return m.prepare()
}

// nextTurn advances the battle turn, lets delayed effects land, and queues
// the move again on the same stage.
func (m *BattleModel) nextTurn() error {
	m.turns++
	if landed := m.ctx.NextTurn(); landed > 0 {
		m.feed.Add(fmt.Sprintf("%d delayed effect(s) landed", landed))
	}
	return m.prepare()
}

func (m *BattleModel) prepare() error {
	m.scale = m.difficulty.CheckScale(m.wins, m.turns)
	setup := moves.StageSetup()
	setup.Policy = m.policy
	setup.GraceWindow = m.opts.Config.Input.GraceWindow
	setup.CheckScale = m.scale

	seq, err := moves.Prepare(m.ctx, m.move, setup)
	if err != nil {
		return err
	}
	m.seq = seq
	m.frame = core.NewInputFrame()
	m.started = false
	m.wall = 0
	m.report = nil
	m.err = nil
	m.seq.Start()
	return nil
}

// Init starts the tick loop.
func (m BattleModel) Init() tea.Cmd {
	return tickCmd(m.opts.Config.Runtime.TickRate)
}

// Update handles messages and updates the model state.
func (m BattleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m BattleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, isQuit := m.keyMapper.MapKey(msg)
	if isQuit {
		m.quitting = true
		return m, tea.Quit
	}

	switch action {
	case core.ActionPrimary, core.ActionSecondary:
		m.press(action)
	case core.ActionUp, core.ActionDown, core.ActionLeft, core.ActionRight:
		m.frame.Set(action)
	case core.ActionPause:
		if m.seq.Ended() {
			break
		}
		if m.ctx.Clock.Paused() {
			m.ctx.Clock.Resume()
		} else {
			m.ctx.Clock.Pause()
		}
	case core.ActionConfirm:
		if m.seq.Ended() {
			m.err = m.nextTurn()
			break
		}
		// Mid-action, Enter hurries the dialogue along.
		m.ctx.Dialogue.Skip()
	case core.ActionRestart:
		if m.seq.Ended() {
			m.err = m.newBattle()
		}
	case core.ActionBack:
		m.backToMenu = true
		if m.opts.ExitOnBack {
			return m, tea.Quit
		}
	}

	return m, nil
}

// press records a button press. Terminals report no key-up events, so while
// a hold-and-release check listens to the button, presses toggle the hold.
func (m *BattleModel) press(a core.Action) {
	if c := m.seq.Check(); c != nil && c.Kind() == skillcheck.KindHoldRelease && c.Config().Button == a {
		if m.frame.IsHeld(a) {
			m.frame.Release(a)
		} else {
			m.frame.Hold(a)
		}
		return
	}
	m.frame.Set(a)
}

// handleTick processes simulation ticks.
func (m BattleModel) handleTick() (tea.Model, tea.Cmd) {
	next := tickCmd(m.opts.Config.Runtime.TickRate)
	if m.seq.Ended() {
		return m, next
	}

	clock := m.ctx.Clock
	if !m.started {
		clock.Advance(0)
		m.started = true
	} else {
		dt := m.opts.Config.Core().TickDelta()
		clock.Advance(dt)
		m.wall += dt
	}

	// Presses made while paused are dropped; holds survive.
	if !clock.Paused() {
		m.seq.Update(m.frame)
	}
	m.frame.Clear()

	if m.seq.Ended() && m.report == nil {
		m.finish()
	}
	return m, next
}

// finish records the report of the action that just ended and saves it once.
func (m *BattleModel) finish() {
	rep := moves.Summarize(m.seq, m.wall)
	m.report = &rep
	if rep.Outcome == sequence.BranchSuccess.String() {
		m.wins++
	}
	m.logger.Info("action finished",
		"move", rep.Move,
		"outcome", rep.Outcome,
		"rank", rep.Rank,
		"damage", rep.Damage,
		"seed", m.seed,
	)

	if m.opts.Saver == nil {
		return
	}
	if err := m.opts.Saver.SaveResult(rep.Result(m.seed)); err != nil {
		m.logger.Warn("could not save result", "move", rep.Move, "error", err)
	}
}

// View renders the current state to a string for display.
func (m BattleModel) View() string {
	if m.quitting {
		return ""
	}

	v := m.seq.Snapshot()
	sep := theme.HUDSeparator.Render(" | ")

	var b strings.Builder
	b.WriteString(theme.HUDTitle.Render(strings.ToUpper(m.move.Title())))
	b.WriteString(sep)
	b.WriteString(theme.HUDValue.Render(fmt.Sprintf("%s/%d", v.Branch, v.Step)))
	if v.Active != "" {
		b.WriteString(" " + theme.HUDControls.Render(v.Active))
	}
	if v.Side > 0 {
		b.WriteString(theme.HUDControls.Render(fmt.Sprintf(" +%d side", v.Side)))
	}
	b.WriteString(sep)
	b.WriteString(theme.HUDValue.Render(fmt.Sprintf("turn %d", m.ctx.Turn+1)))
	b.WriteString(sep)
	b.WriteString(theme.HUDValue.Render(fmt.Sprintf("timing x%.2f", m.scale)))
	if m.ctx.Clock.Paused() {
		b.WriteString(sep)
		b.WriteString(theme.OverlayTitle.Render("PAUSED"))
	}
	b.WriteString("\n\n")

	ents := m.ctx.Entities.All()
	b.WriteString(renderStage(ents, moves.Hero))
	b.WriteString("\n\n")
	b.WriteString(renderHP(ents))
	b.WriteString("\n")
	b.WriteString(renderCheck(v))
	b.WriteString("\n")

	line, speaking := m.ctx.Dialogue.Current(m.ctx.Now())
	b.WriteString(renderFeed(line, speaking, m.feed.Lines()))

	if m.report != nil {
		b.WriteString(renderReport(*m.report))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(theme.HPLow.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(theme.HUDControls.Render(m.help.View(m.keys)))
	return b.String()
}

// renderReport draws the summary box shown after an action ends.
func renderReport(rep moves.Report) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.OverlayBorder.GetForeground()).
		Padding(0, 2)

	var b strings.Builder
	b.WriteString(theme.OverlayTitle.Render(strings.ToUpper(rep.Outcome)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "damage %d  rank %s  x%.2f  checks %d",
		rep.Damage, rankStyle(rep.Rank).Render(rep.Rank.String()), rep.Multiplier, rep.Successes)
	if rep.Interrupted != battle.InterruptNone {
		fmt.Fprintf(&b, "\ninterrupted by %s", rep.Interrupted)
	}
	fmt.Fprintf(&b, "\n%d ticks, %s active", rep.Ticks, rep.Active.Round(time.Millisecond))
	return box.Render(b.String())
}

// Report returns the report of the last finished action, or nil.
func (m BattleModel) Report() *moves.Report {
	return m.report
}

// Sequence returns the running sequence.
func (m BattleModel) Sequence() *sequence.Sequence {
	return m.seq
}

// Wins returns how many actions ended in success.
func (m BattleModel) Wins() int {
	return m.wins
}

// IsQuitting returns true if user requested to quit entirely.
func (m BattleModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m BattleModel) BackToMenu() bool {
	return m.backToMenu
}

// RunBattle runs a single move until the user leaves.
// Returns true if user wants to go back to menu, false if quitting.
func RunBattle(opts BattleOptions) (goBack bool, err error) {
	opts.ExitOnBack = true
	model, err := NewBattleModel(opts)
	if err != nil {
		return false, err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m, ok := finalModel.(BattleModel)
	if !ok {
		return false, nil
	}

	return m.BackToMenu(), nil
}
