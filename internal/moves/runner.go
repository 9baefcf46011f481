package moves

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/sequence"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
)

// ErrTickLimit is returned when a run does not end within Runner.MaxTicks.
var ErrTickLimit = errors.New("moves: tick limit reached")

// InputKind is the kind of a scripted input event.
type InputKind int

const (
	InputPress InputKind = iota
	InputHold
	InputRelease
)

func (k InputKind) String() string {
	switch k {
	case InputHold:
		return "hold"
	case InputRelease:
		return "release"
	default:
		return "press"
	}
}

// InputEvent fires on the first tick whose active time is >= At.
type InputEvent struct {
	At     time.Duration
	Action core.Action
	Kind   InputKind
}

// InputScript is a list of input events.
type InputScript []InputEvent

// ParseInputScript parses events of the form kind[:action]@time separated
// by commas or spaces, e.g. "hold@100ms, release:primary@1.1s".
func ParseInputScript(s string) (InputScript, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	script := make(InputScript, 0, len(fields))
	for _, f := range fields {
		head, at, ok := strings.Cut(f, "@")
		if !ok {
			return nil, fmt.Errorf("moves: input %q: missing @time", f)
		}
		d, err := time.ParseDuration(at)
		if err != nil {
			return nil, fmt.Errorf("moves: input %q: %w", f, err)
		}
		kindName, actionName, _ := strings.Cut(head, ":")
		ev := InputEvent{At: d}
		switch kindName {
		case "press", "p":
			ev.Kind = InputPress
		case "hold", "h":
			ev.Kind = InputHold
		case "release", "r":
			ev.Kind = InputRelease
		default:
			return nil, fmt.Errorf("moves: input %q: unknown kind %q", f, kindName)
		}
		a, ok := core.ParseAction(actionName)
		if !ok {
			return nil, fmt.Errorf("moves: input %q: unknown action %q", f, actionName)
		}
		ev.Action = a
		script = append(script, ev)
	}
	return script, nil
}

// Mash returns n presses of the primary action, every interval from start.
func Mash(start, every time.Duration, n int) InputScript {
	script := make(InputScript, 0, n)
	for i := 0; i < n; i++ {
		script = append(script, InputEvent{At: start + time.Duration(i)*every, Action: core.ActionPrimary})
	}
	return script
}

// PauseSpan pauses the battle clock for For of wall time, starting at At.
type PauseSpan struct {
	At  time.Duration
	For time.Duration
}

// Runner plays a sequence headlessly at a fixed tick rate.
type Runner struct {
	TickRate int // Ticks per second; 60 when zero
	MaxTicks int // 0 means 10 minutes of ticks
	Pauses   []PauseSpan
}

// Report summarises a finished run.
type Report struct {
	RunID       string
	Move        string
	Outcome     string // success, failed, miss or none
	Branch      sequence.Branch
	Rank        skillcheck.Rank
	Interrupted battle.Interruption
	Successes   int
	Damage      int
	Multiplier  float64
	Ticks       uint64
	Active      time.Duration
	Wall        time.Duration
	Diagnostics int
	Values      map[string]float64
	Trace       []sequence.TraceEntry
}

// Run starts seq if needed and ticks it until it ends. The clock in bctx is
// advanced before each update.
func (r Runner) Run(ctx context.Context, bctx *battle.Context, seq *sequence.Sequence, script InputScript) (Report, error) {
	rate := r.TickRate
	if rate <= 0 {
		rate = 60
	}
	dt := time.Second / time.Duration(rate)
	limit := r.MaxTicks
	if limit <= 0 {
		limit = rate * 600
	}

	events := make(InputScript, len(script))
	copy(events, script)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })

	if !seq.Started() {
		seq.Start()
	}
	clock := bctx.Clock
	frame := core.NewInputFrame()
	next := 0
	var wall time.Duration

	for tick := 0; !seq.Ended(); tick++ {
		if tick >= limit {
			return Summarize(seq, wall), fmt.Errorf("%w: %s after %d ticks", ErrTickLimit, seq.Info().ID, tick)
		}
		if err := ctx.Err(); err != nil {
			return Summarize(seq, wall), err
		}

		r.applyPauses(clock, wall)
		if tick == 0 {
			clock.Advance(0)
		} else {
			clock.Advance(dt)
			wall += dt
		}
		if clock.Paused() {
			continue
		}

		frame.Clear()
		now := clock.Now()
		for next < len(events) && events[next].At <= now {
			apply(&frame, events[next])
			next++
		}
		seq.Update(frame)
	}
	return Summarize(seq, wall), nil
}

func (r Runner) applyPauses(clock *core.Clock, wall time.Duration) {
	paused := false
	for _, p := range r.Pauses {
		if wall >= p.At && wall < p.At+p.For {
			paused = true
		}
	}
	if paused {
		clock.Pause()
	} else {
		clock.Resume()
	}
}

func apply(f *core.InputFrame, ev InputEvent) {
	switch ev.Kind {
	case InputHold:
		f.Hold(ev.Action)
	case InputRelease:
		f.Release(ev.Action)
	default:
		f.Set(ev.Action)
	}
}

// Summarize builds a Report for seq. Hosts that tick a sequence themselves
// call it once the sequence ended.
func Summarize(seq *sequence.Sequence, wall time.Duration) Report {
	return Report{
		RunID:       uuid.NewString(),
		Move:        seq.Info().ID,
		Outcome:     Outcome(seq.Trace()),
		Branch:      seq.Branch(),
		Rank:        seq.Rank(),
		Interrupted: seq.Interruption(),
		Successes:   seq.Successes(),
		Damage:      seq.TotalDamage(),
		Multiplier:  seq.Multiplier(),
		Ticks:       seq.Ticks(),
		Active:      seq.Now(),
		Wall:        wall,
		Diagnostics: seq.Diagnostics(),
		Values:      seq.Values(),
		Trace:       seq.Trace(),
	}
}

// Outcome names the last result branch visited in trace.
func Outcome(trace []sequence.TraceEntry) string {
	out := "none"
	for _, e := range trace {
		if e.Kind != "branch" {
			continue
		}
		switch e.Branch {
		case sequence.BranchSuccess, sequence.BranchFailed, sequence.BranchMiss:
			out = e.Branch.String()
		}
	}
	return out
}

// Execute creates move id, prepares it on bctx and runs it.
func Execute(ctx context.Context, bctx *battle.Context, id string, setup Setup, script InputScript, r Runner) (Report, error) {
	m, err := Create(id)
	if err != nil {
		return Report{}, err
	}
	seq, err := Prepare(bctx, m, setup)
	if err != nil {
		return Report{}, err
	}
	return r.Run(ctx, bctx, seq, script)
}
