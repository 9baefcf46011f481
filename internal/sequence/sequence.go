package sequence

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
	"github.com/vovakirdan/tui-battle/internal/step"
)

// maxDispatch caps how many transitions one tick may run.
const maxDispatch = 64

// Info is the read-only description of the move being executed.
type Info struct {
	ID      string
	Name    string
	Power   float64
	User    battle.EntityID
	Targets []battle.EntityID
}

// Hooks override the default reactions of a sequence. A nil hook keeps the
// default. Hooks returning bool report whether they handled the event, which
// suppresses the default branch change.
type Hooks struct {
	OnMiss            func(s *Sequence) bool
	OnInterruption    func(s *Sequence, kind battle.Interruption)
	OnCommandSuccess  func(s *Sequence) bool
	OnCommandFailed   func(s *Sequence) bool
	OnCommandResponse func(s *Sequence, value float64)
	OnEnd             func(s *Sequence)
}

// Options configure a sequence at construction.
type Options struct {
	// Check, when set, creates a skill check owned by the sequence.
	Check       *skillcheck.Config
	Policy      InputPolicy
	GraceWindow time.Duration
	Hooks       Hooks
}

// TraceEntry records one branch change or installed step.
type TraceEntry struct {
	Tick   uint64
	Branch Branch
	Step   int
	Kind   string
}

func (e TraceEntry) String() string {
	return fmt.Sprintf("#%d %s/%d %s", e.Tick, e.Branch, e.Step, e.Kind)
}

// Sequence executes one action. It is not safe for concurrent use; the host
// loop owns it.
type Sequence struct {
	ctx    *battle.Context
	info   Info
	table  *Table
	hooks  Hooks
	policy InputPolicy
	grace  time.Duration

	branch Branch
	step   int
	epoch  uint64 // bumped on every key change or install
	active step.Step
	side   []step.Step
	check  *skillcheck.Check

	started bool
	ended   bool
	tick    uint64

	graceActive bool
	graceUntil  time.Duration

	interruption battle.Interruption
	responses    []float64
	successes    int
	failures     int
	multiplier   float64
	values       map[string]float64
	results      []battle.Result
	damage       int

	trace       []TraceEntry
	diagnosed   map[Key]bool
	diagnostics int
}

// New creates a sequence for info over table. The table must be valid.
func New(ctx *battle.Context, info Info, table *Table, opts Options) (*Sequence, error) {
	if ctx == nil {
		return nil, errors.New("sequence: nil context")
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("sequence: move %q: %w", info.ID, err)
	}
	s := &Sequence{
		ctx:        ctx,
		info:       info,
		table:      table,
		hooks:      opts.Hooks,
		policy:     opts.Policy,
		grace:      opts.GraceWindow,
		multiplier: 1,
		values:     make(map[string]float64),
		diagnosed:  make(map[Key]bool),
	}
	if s.policy == PolicyGrace && s.grace <= 0 {
		s.grace = DefaultGraceWindow
	}
	if opts.Check != nil {
		s.check = skillcheck.New(*opts.Check, s, ctx)
		if err := s.check.Config().Validate(); err != nil {
			return nil, fmt.Errorf("sequence: move %q: %w", info.ID, err)
		}
	}
	return s, nil
}

// Start enters (BranchStart, 0). The first transition runs on the next
// Update.
func (s *Sequence) Start() {
	if s.started {
		s.ctx.Log().Warn("sequence already started", "move", s.info.ID)
		return
	}
	s.started = true
	s.branch = BranchStart
	s.step = 0
	s.ctx.Log().Debug("action started", "move", s.info.ID)
	s.record("branch")
	s.ctx.Observe(battle.BranchChanged{Move: s.info.ID, To: s.branch.String(), Tick: s.tick})
}

// Update advances the sequence by one tick. The clock must already have been
// advanced by the host.
func (s *Sequence) Update(in core.InputFrame) {
	if !s.started || s.ended {
		return
	}
	s.tick++
	now := s.ctx.Now()

	sampled := s.check != nil && s.check.AcceptingInput()
	if sampled {
		s.check.Update(now, in)
	}
	s.updateGrace(now)
	if s.ended {
		return
	}
	s.updateSide(now)
	if s.ended {
		return
	}
	if s.active != nil && !s.active.Done() {
		s.active.Update(now)
	}
	s.dispatch()

	// A check opened by this tick's transitions sees this tick's input.
	if !sampled && !s.ended && s.check != nil && s.check.AcceptingInput() {
		s.check.Update(now, in)
		s.dispatch()
	}
}

func (s *Sequence) dispatch() {
	for n := 0; n < maxDispatch; {
		if s.ended {
			return
		}
		if s.active != nil {
			if !s.active.Done() {
				return
			}
			done := s.active
			s.active = nil
			done.RunHook()
			continue
		}

		key := s.Key()
		fn, ok := s.table.Lookup(key)
		if !ok {
			s.diagnose(key, "no transition for key")
			return
		}
		mark := s.epoch
		fn(s)
		n++
		if s.ended {
			return
		}
		if s.epoch == mark {
			s.diagnose(key, "transition made no progress")
			return
		}
	}
	s.ctx.Log().Warn("dispatch limit reached", "move", s.info.ID, "key", s.Key(), "limit", maxDispatch)
}

func (s *Sequence) diagnose(key Key, msg string) {
	s.diagnostics++
	if s.diagnosed[key] {
		return
	}
	s.diagnosed[key] = true
	s.ctx.Log().Warn(msg, "move", s.info.ID, "key", key.String())
}

// Then installs st as the active step and advances to the next key. The step
// starts and receives its first update immediately.
func (s *Sequence) Then(st step.Step) {
	if s.ended {
		return
	}
	if st == nil {
		s.Advance()
		return
	}
	if s.active != nil && !s.active.Done() {
		s.ctx.Log().Warn("replacing a running step", "move", s.info.ID, "key", s.Key().String(), "kind", s.active.Kind())
		s.active.End()
	}
	now := s.ctx.Now()
	s.record(st.Kind().String())
	s.ctx.Observe(battle.StepInstalled{
		Move:   s.info.ID,
		Branch: s.branch.String(),
		Step:   s.step,
		Kind:   st.Kind().String(),
	})
	s.step++
	s.epoch++
	s.active = st
	st.Start(now)
	if !st.Done() {
		st.Update(now)
	}
}

// Advance moves to the next key without installing a step.
func (s *Sequence) Advance() {
	if s.ended {
		return
	}
	s.step++
	s.epoch++
}

// ChangeBranch jumps to (b, 0). A running active step is ended without its
// completion hook. Calling it several times in one tick keeps the last
// branch.
func (s *Sequence) ChangeBranch(b Branch) {
	if s.ended {
		return
	}
	from := s.branch
	if s.active != nil {
		if !s.active.Done() {
			s.active.End()
		}
		s.active = nil
	}
	s.branch = b
	s.step = 0
	s.epoch++
	s.record("branch")
	s.ctx.Log().Debug("branch changed", "move", s.info.ID, "from", from, "to", b)
	s.ctx.Observe(battle.BranchChanged{Move: s.info.ID, From: from.String(), To: b.String(), Tick: s.tick})
	s.applyPolicy(from, b)
}

func (s *Sequence) applyPolicy(from, to Branch) {
	if s.check == nil || !s.check.AcceptingInput() {
		return
	}
	switch s.policy {
	case PolicyEndOnBranchChange:
		s.check.EndInput()
	case PolicyGrace:
		s.graceActive = true
		s.graceUntil = s.ctx.Now() + s.grace
	default:
		if s.check.Completing() {
			// The check is reporting the outcome that caused this change.
			return
		}
		s.ctx.Log().Warn("skill check still accepting input after branch change",
			"move", s.info.ID, "from", from, "to", to)
	}
}

func (s *Sequence) updateGrace(now time.Duration) {
	if !s.graceActive {
		return
	}
	if s.check == nil || !s.check.AcceptingInput() {
		s.graceActive = false
		return
	}
	if now >= s.graceUntil {
		s.graceActive = false
		s.check.EndInput()
	}
}

func (s *Sequence) updateSide(now time.Duration) {
	if len(s.side) == 0 {
		return
	}
	current := s.side
	s.side = nil
	keep := make([]step.Step, 0, len(current))
	var finished []step.Step
	for _, st := range current {
		if !st.Done() {
			st.Update(now)
		}
		if st.Done() {
			finished = append(finished, st)
		} else {
			keep = append(keep, st)
		}
	}
	// Side work added while updating goes after the survivors.
	s.side = append(keep, s.side...)
	for _, st := range finished {
		s.ctx.Observe(battle.SideWorkChanged{Move: s.info.ID, Kind: st.Kind().String(), Finished: true, Pending: len(s.side)})
		st.RunHook()
	}
}

// AddSideWork starts st alongside the main line. It is removed once done.
func (s *Sequence) AddSideWork(st step.Step) {
	if st == nil || s.ended {
		return
	}
	if !st.Started() {
		st.Start(s.ctx.Now())
	}
	s.side = append(s.side, st)
	s.ctx.Observe(battle.SideWorkChanged{Move: s.info.ID, Kind: st.Kind().String(), Pending: len(s.side)})
}

// SideCount returns how many side steps are still running.
func (s *Sequence) SideCount() int {
	return len(s.side)
}

// End terminates the sequence. Running steps are torn down and the skill
// check stops accepting input.
func (s *Sequence) End() {
	if s.ended {
		return
	}
	s.ended = true
	if s.active != nil && !s.active.Done() {
		s.active.End()
	}
	s.active = nil
	for _, st := range s.side {
		if !st.Done() {
			st.End()
		}
	}
	s.side = nil
	s.graceActive = false
	if s.check != nil {
		s.check.EndInput()
	}
	s.ctx.Log().Debug("action ended", "move", s.info.ID, "branch", s.branch, "ticks", s.tick)
	s.ctx.Observe(battle.ActionEnded{Move: s.info.ID, Branch: s.branch.String(), Tick: s.tick})
	if s.hooks.OnEnd != nil {
		s.hooks.OnEnd(s)
	}
}

// OnMiss reacts to an evaded effect. It reports whether the default jump to
// BranchMiss happened.
func (s *Sequence) OnMiss() bool {
	if s.ended {
		return false
	}
	if h := s.hooks.OnMiss; h != nil && h(s) {
		return false
	}
	s.ChangeBranch(BranchMiss)
	return true
}

// OnInterruption records kind for later transitions. It never changes branch
// by itself.
func (s *Sequence) OnInterruption(kind battle.Interruption) {
	s.interruption = kind
	s.ctx.Log().Debug("action interrupted", "move", s.info.ID, "kind", kind)
	s.ctx.Observe(battle.Interrupted{Move: s.info.ID, Kind: kind})
	if s.hooks.OnInterruption != nil {
		s.hooks.OnInterruption(s, kind)
	}
}

// OnCommandSuccess implements skillcheck.Owner.
func (s *Sequence) OnCommandSuccess() {
	s.successes++
	if s.ended {
		return
	}
	if h := s.hooks.OnCommandSuccess; h != nil && h(s) {
		return
	}
	s.ChangeBranch(BranchSuccess)
}

// OnCommandFailed implements skillcheck.Owner.
func (s *Sequence) OnCommandFailed() {
	s.failures++
	if s.ended {
		return
	}
	if h := s.hooks.OnCommandFailed; h != nil && h(s) {
		return
	}
	s.ChangeBranch(BranchFailed)
}

// OnCommandResponse implements skillcheck.Owner.
func (s *Sequence) OnCommandResponse(value float64) {
	s.responses = append(s.responses, value)
	if s.hooks.OnCommandResponse != nil {
		s.hooks.OnCommandResponse(s, value)
	}
}

func (s *Sequence) record(kind string) {
	s.trace = append(s.trace, TraceEntry{Tick: s.tick, Branch: s.branch, Step: s.step, Kind: kind})
}

// Key returns the current (Branch, Step).
func (s *Sequence) Key() Key { return Key{Branch: s.branch, Step: s.step} }

func (s *Sequence) Branch() Branch           { return s.branch }
func (s *Sequence) StepIndex() int           { return s.step }
func (s *Sequence) Active() step.Step        { return s.active }
func (s *Sequence) Started() bool            { return s.started }
func (s *Sequence) Ended() bool              { return s.ended }
func (s *Sequence) Ticks() uint64            { return s.tick }
func (s *Sequence) Info() Info               { return s.info }
func (s *Sequence) Context() *battle.Context { return s.ctx }
func (s *Sequence) Rand() *rand.Rand         { return s.ctx.Rand }
func (s *Sequence) Now() time.Duration       { return s.ctx.Now() }
func (s *Sequence) Policy() InputPolicy      { return s.policy }

// Diagnostics counts unhandled and stalled dispatches.
func (s *Sequence) Diagnostics() int { return s.diagnostics }

// Trace returns a copy of the recorded trace.
func (s *Sequence) Trace() []TraceEntry {
	out := make([]TraceEntry, len(s.trace))
	copy(out, s.trace)
	return out
}

// Interruption returns the last recorded interruption.
func (s *Sequence) Interruption() battle.Interruption { return s.interruption }

// Responses returns every streamed skill-check value in order.
func (s *Sequence) Responses() []float64 {
	out := make([]float64, len(s.responses))
	copy(out, s.responses)
	return out
}

// LastResponse returns the most recent streamed value, or zero.
func (s *Sequence) LastResponse() float64 {
	if len(s.responses) == 0 {
		return 0
	}
	return s.responses[len(s.responses)-1]
}

// Successes counts OnCommandSuccess calls.
func (s *Sequence) Successes() int { return s.successes }

// Failures counts OnCommandFailed calls.
func (s *Sequence) Failures() int { return s.failures }

// Multiplier scales effect magnitude; it starts at 1.
func (s *Sequence) Multiplier() float64 { return s.multiplier }

func (s *Sequence) SetMultiplier(m float64) { s.multiplier = m }

// Value returns a scratch value set by move logic.
func (s *Sequence) Value(key string) float64 { return s.values[key] }

func (s *Sequence) SetValue(key string, v float64) { s.values[key] = v }

// Values returns a copy of the scratch values.
func (s *Sequence) Values() map[string]float64 {
	out := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
