// Package step provides the timed primitives a combat action is built from.
//
// A Step is an atomic, resumable unit of work measured in active time:
// Start records when it began, Update advances it once per tick while it is
// not done, and End marks it done and runs its teardown exactly once.
package step

import (
	"time"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
)

// Kind names a primitive for traces and observers.
type Kind int

const (
	KindWait Kind = iota
	KindMoveTo
	KindAnimation
	KindEvent
	KindDialogue
	KindCheck
	KindSideWork
	KindDo
)

// String returns the name used in traces.
func (k Kind) String() string {
	switch k {
	case KindWait:
		return "wait"
	case KindMoveTo:
		return "move_to"
	case KindAnimation:
		return "animation"
	case KindEvent:
		return "event"
	case KindDialogue:
		return "dialogue"
	case KindCheck:
		return "check"
	case KindSideWork:
		return "side_work"
	case KindDo:
		return "do"
	default:
		return "unknown"
	}
}

// Step is the lifecycle every timed primitive shares.
type Step interface {
	Kind() Kind
	Start(now time.Duration)
	Update(now time.Duration)
	End()
	Done() bool
	Started() bool

	// SetHook installs the completion hook; RunHook runs it at most once.
	SetHook(fn func())
	RunHook()
}

// Base implements the bookkeeping shared by all primitives.
type Base struct {
	kind      Kind
	startedAt time.Duration
	started   bool
	done      bool
	hookRan   bool
	hook      func()
	teardown  func()
}

func newBase(kind Kind) Base {
	return Base{kind: kind}
}

// Kind returns the primitive kind.
func (b *Base) Kind() Kind {
	return b.kind
}

// Start records the activation time.
func (b *Base) Start(now time.Duration) {
	b.started = true
	b.startedAt = now
}

// End marks the step done and runs teardown once.
func (b *Base) End() {
	if b.done {
		return
	}
	b.done = true
	if b.teardown != nil {
		b.teardown()
	}
}

// Done reports whether End has run.
func (b *Base) Done() bool {
	return b.done
}

// Started reports whether Start has run.
func (b *Base) Started() bool {
	return b.started
}

// Elapsed returns the active time since Start.
func (b *Base) Elapsed(now time.Duration) time.Duration {
	return now - b.startedAt
}

// SetHook installs fn as the completion hook.
func (b *Base) SetHook(fn func()) {
	b.hook = fn
}

// RunHook runs the completion hook if it has not run yet.
func (b *Base) RunHook() {
	if b.hookRan || b.hook == nil {
		return
	}
	b.hookRan = true
	b.hook()
}

// SetTeardown installs fn to run when the step ends, however it ends.
func (b *Base) SetTeardown(fn func()) {
	b.teardown = fn
}

// Then sets fn as s's completion hook and returns s.
func Then(s Step, fn func()) Step {
	s.SetHook(fn)
	return s
}

// Positive coerces a negative duration to its absolute value and logs a
// warning.
func Positive(ctx *battle.Context, kind Kind, d time.Duration) time.Duration {
	abs, neg := core.AbsDuration(d)
	if neg {
		ctx.Log().Warn("negative step duration coerced", "kind", kind, "value", d, "using", abs)
	}
	return abs
}
