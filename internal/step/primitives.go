package step

import (
	"time"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
)

// WaitStep completes once its duration of active time has passed.
type WaitStep struct {
	Base
	duration time.Duration
}

// Wait creates a step that is done at the first tick where
// active time >= start + d.
func Wait(ctx *battle.Context, d time.Duration) *WaitStep {
	return &WaitStep{Base: newBase(KindWait), duration: Positive(ctx, KindWait, d)}
}

// Duration returns the (coerced) wait length.
func (w *WaitStep) Duration() time.Duration {
	return w.duration
}

// Update ends the wait once enough active time has passed.
func (w *WaitStep) Update(now time.Duration) {
	if w.done {
		return
	}
	if w.Elapsed(now) >= w.duration {
		w.End()
	}
}

// MoveStep interpolates a transform toward a destination.
type MoveStep struct {
	Base
	target   battle.Transform
	from     core.Vec2
	to       core.Vec2
	duration time.Duration
	easing   core.Easing
}

// MoveTo creates a step moving t from its position at Start to dest over d.
// A nil transform finishes on the first tick.
func MoveTo(ctx *battle.Context, t battle.Transform, dest core.Vec2, d time.Duration, easing core.Easing) *MoveStep {
	return &MoveStep{
		Base:     newBase(KindMoveTo),
		target:   t,
		to:       dest,
		duration: Positive(ctx, KindMoveTo, d),
		easing:   easing,
	}
}

// Start captures the position the move interpolates from.
func (m *MoveStep) Start(now time.Duration) {
	m.Base.Start(now)
	if m.target != nil {
		m.from = m.target.Position()
	}
}

// Update moves the transform and snaps exactly onto the destination at the end.
func (m *MoveStep) Update(now time.Duration) {
	if m.done {
		return
	}
	if m.target == nil {
		m.End()
		return
	}
	elapsed := m.Elapsed(now)
	if m.duration <= 0 || elapsed >= m.duration {
		m.target.SetPosition(m.to)
		m.End()
		return
	}
	t := float64(elapsed) / float64(m.duration)
	m.target.SetPosition(core.Lerp(m.from, m.to, m.easing.Apply(t)))
}

// Destination returns where the move ends.
func (m *MoveStep) Destination() core.Vec2 {
	return m.to
}

// AnimationStep waits for a named animation, optionally starting it first.
type AnimationStep struct {
	Base
	animator battle.Animator
	name     string
	length   time.Duration
	play     bool
}

// WaitAnimation waits until the named animation reports finished.
func WaitAnimation(a battle.Animator, name string) *AnimationStep {
	return &AnimationStep{Base: newBase(KindAnimation), animator: a, name: name}
}

// PlayAnimation starts the named animation on Start and waits for it.
func PlayAnimation(ctx *battle.Context, a battle.Animator, name string, length time.Duration) *AnimationStep {
	return &AnimationStep{
		Base:     newBase(KindAnimation),
		animator: a,
		name:     name,
		length:   Positive(ctx, KindAnimation, length),
		play:     true,
	}
}

// Start plays the animation if this step owns it.
func (s *AnimationStep) Start(now time.Duration) {
	s.Base.Start(now)
	if s.play && s.animator != nil {
		s.animator.PlayAnimation(s.name, now, s.length)
	}
}

// Update ends the step once the animation is finished or missing.
func (s *AnimationStep) Update(now time.Duration) {
	if s.done {
		return
	}
	if s.animator == nil || s.animator.AnimationFinished(s.name, now) {
		s.End()
	}
}

// EventStep waits for a posted stage event.
type EventStep struct {
	Base
	events *battle.Events
	id     battle.EventID
}

// WaitEvent waits until the event queue reports id finished.
func WaitEvent(q *battle.Events, id battle.EventID) *EventStep {
	return &EventStep{Base: newBase(KindEvent), events: q, id: id}
}

// Update ends the step once the event is finished or the queue is missing.
func (s *EventStep) Update(now time.Duration) {
	if s.done {
		return
	}
	if s.events == nil || s.events.Finished(s.id, now) {
		s.End()
	}
}

// DialogueStep waits for a dialogue line to close.
type DialogueStep struct {
	Base
	dialogue *battle.Dialogue
	id       battle.EventID
}

// WaitDialogue waits until the dialogue reports the line finished.
func WaitDialogue(d *battle.Dialogue, id battle.EventID) *DialogueStep {
	return &DialogueStep{Base: newBase(KindDialogue), dialogue: d, id: id}
}

// Update ends the step once the line is finished or the dialogue is missing.
func (s *DialogueStep) Update(now time.Duration) {
	if s.done {
		return
	}
	if s.dialogue == nil || s.dialogue.Finished(s.id, now) {
		s.End()
	}
}

// CheckStep runs a skill check on the main line.
type CheckStep struct {
	Base
	check   *skillcheck.Check
	limit   time.Duration
	enabled bool
}

// WaitCheck starts check (if enabled) and waits for it to stop accepting input.
// If limit elapses first the check is completed as a failure. A limit of
// skillcheck.Infinite never times out; a disabled or nil check finishes on
// the first tick.
func WaitCheck(ctx *battle.Context, check *skillcheck.Check, limit time.Duration, enabled bool) *CheckStep {
	if limit != skillcheck.Infinite {
		limit = Positive(ctx, KindCheck, limit)
	}
	return &CheckStep{Base: newBase(KindCheck), check: check, limit: limit, enabled: enabled}
}

// Start opens input on the check unless it is already accepting.
func (s *CheckStep) Start(now time.Duration) {
	s.Base.Start(now)
	if s.enabled && s.check != nil && !s.check.AcceptingInput() {
		s.check.StartInput(now)
	}
}

// Update ends the step when the check stopped accepting or timed out.
func (s *CheckStep) Update(now time.Duration) {
	if s.done {
		return
	}
	if !s.enabled || s.check == nil || !s.check.AcceptingInput() {
		s.End()
		return
	}
	if s.limit != skillcheck.Infinite && s.Elapsed(now) >= s.limit {
		s.check.Complete(skillcheck.Failure)
		s.End()
	}
}

// SideWorkStep waits until no side work is pending.
type SideWorkStep struct {
	Base
	pending func() int
}

// WaitSideWork waits until pending reports zero.
func WaitSideWork(pending func() int) *SideWorkStep {
	return &SideWorkStep{Base: newBase(KindSideWork), pending: pending}
}

// Update ends the step once all side work is gone.
func (s *SideWorkStep) Update(time.Duration) {
	if s.done {
		return
	}
	if s.pending == nil || s.pending() == 0 {
		s.End()
	}
}

// DoStep runs a callback on its first tick and finishes.
type DoStep struct {
	Base
	fn func()
}

// Do creates an instant step running fn.
func Do(fn func()) *DoStep {
	return &DoStep{Base: newBase(KindDo), fn: fn}
}

// Update runs the callback once and ends.
func (s *DoStep) Update(time.Duration) {
	if s.done {
		return
	}
	if s.fn != nil {
		s.fn()
	}
	s.End()
}
