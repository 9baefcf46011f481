package sequence

import (
	"time"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
	"github.com/vovakirdan/tui-battle/internal/step"
)

// Entity looks up a combatant by ID. Missing entities return nil.
func (s *Sequence) Entity(id battle.EntityID) *battle.Entity {
	if s.ctx.Entities == nil {
		return nil
	}
	e, ok := s.ctx.Entities.Get(id)
	if !ok {
		return nil
	}
	return e
}

// User returns the acting entity.
func (s *Sequence) User() *battle.Entity {
	return s.Entity(s.info.User)
}

// Target returns the i-th target, or nil.
func (s *Sequence) Target(i int) *battle.Entity {
	if i < 0 || i >= len(s.info.Targets) {
		return nil
	}
	return s.Entity(s.info.Targets[i])
}

func (s *Sequence) transform(id battle.EntityID) battle.Transform {
	if e := s.Entity(id); e != nil {
		return e
	}
	return nil
}

func (s *Sequence) animator(id battle.EntityID) battle.Animator {
	if e := s.Entity(id); e != nil {
		return e
	}
	return nil
}

// Wait installs a wait of d.
func (s *Sequence) Wait(d time.Duration) {
	s.Then(step.Wait(s.ctx, d))
}

// MoveTo installs a move of entity id to dest.
func (s *Sequence) MoveTo(id battle.EntityID, dest core.Vec2, d time.Duration, easing core.Easing) {
	s.Then(step.MoveTo(s.ctx, s.transform(id), dest, d, easing))
}

// MoveHome moves entity id back to its home position.
func (s *Sequence) MoveHome(id battle.EntityID, d time.Duration, easing core.Easing) {
	var dest core.Vec2
	if e := s.Entity(id); e != nil {
		dest = e.Home
	}
	s.Then(step.MoveTo(s.ctx, s.transform(id), dest, d, easing))
}

// Animate plays name on entity id and waits for it to finish.
func (s *Sequence) Animate(id battle.EntityID, name string, length time.Duration) {
	s.Then(step.PlayAnimation(s.ctx, s.animator(id), name, length))
}

// AnimateSide plays name on entity id as side work.
func (s *Sequence) AnimateSide(id battle.EntityID, name string, length time.Duration) {
	s.AddSideWork(step.PlayAnimation(s.ctx, s.animator(id), name, length))
}

// Event posts a named event and waits for it.
func (s *Sequence) Event(name string, length time.Duration) {
	if s.ctx.Events == nil {
		s.Then(step.WaitEvent(nil, 0))
		return
	}
	length = step.Positive(s.ctx, step.KindEvent, length)
	id := s.ctx.Events.Post(name, s.ctx.Now(), length)
	s.Then(step.WaitEvent(s.ctx.Events, id))
}

// Say shows a dialogue line and waits until it is done.
func (s *Sequence) Say(speaker, text string, length time.Duration) {
	if s.ctx.Dialogue == nil {
		s.Then(step.WaitDialogue(nil, 0))
		return
	}
	length = step.Positive(s.ctx, step.KindDialogue, length)
	id := s.ctx.Dialogue.Say(speaker, text, s.ctx.Now(), length)
	s.Then(step.WaitDialogue(s.ctx.Dialogue, id))
}

// WaitCheck starts the skill check if needed and waits for it to stop
// accepting input, up to limit.
func (s *Sequence) WaitCheck(limit time.Duration) {
	s.Then(step.WaitCheck(s.ctx, s.check, limit, s.check != nil))
}

// WaitSideWork waits until every side step has finished.
func (s *Sequence) WaitSideWork() {
	s.Then(step.WaitSideWork(s.SideCount))
}

// Do installs a step that runs fn once.
func (s *Sequence) Do(fn func()) {
	s.Then(step.Do(fn))
}

// Check returns the skill check, or nil.
func (s *Sequence) Check() *skillcheck.Check {
	return s.check
}

// StartCheck opens the skill check at the current time.
func (s *Sequence) StartCheck() {
	if s.check == nil {
		s.ctx.Log().Warn("no skill check to start", "move", s.info.ID)
		return
	}
	s.check.StartInput(s.ctx.Now())
}

// EndCheck stops the skill check from accepting input.
func (s *Sequence) EndCheck() {
	if s.check != nil {
		s.check.EndInput()
	}
	s.graceActive = false
}

// Rank returns the skill check rank, or RankNone without a check.
func (s *Sequence) Rank() skillcheck.Rank {
	if s.check == nil {
		return skillcheck.RankNone
	}
	return s.check.Rank()
}

// Hit resolves one effect against target and routes a miss or interruption
// to OnMiss or OnInterruption.
func (s *Sequence) Hit(target battle.EntityID, power float64) battle.Result {
	res := s.resolve(target, power, false)
	s.react(res)
	return res
}

// HitUnerring resolves an effect that skips the evasion roll.
func (s *Sequence) HitUnerring(target battle.EntityID, power float64) battle.Result {
	res := s.resolve(target, power, true)
	s.react(res)
	return res
}

// HitAll resolves power against every target. OnMiss fires once, and only
// when every target evaded.
func (s *Sequence) HitAll(power float64) []battle.Result {
	results := make([]battle.Result, 0, len(s.info.Targets))
	missed := 0
	for _, id := range s.info.Targets {
		res := s.resolve(id, power, false)
		results = append(results, res)
		switch res.Kind {
		case battle.ResultMiss:
			missed++
		case battle.ResultInterrupted:
			s.OnInterruption(res.Interruption)
		}
	}
	if len(results) > 0 && missed == len(results) {
		s.OnMiss()
	}
	return results
}

func (s *Sequence) react(res battle.Result) {
	switch res.Kind {
	case battle.ResultMiss:
		s.OnMiss()
	case battle.ResultInterrupted:
		s.OnInterruption(res.Interruption)
	}
}

func (s *Sequence) resolve(target battle.EntityID, power float64, unerring bool) battle.Result {
	if s.ctx.Resolver == nil {
		s.ctx.Log().Warn("no resolver; effect treated as a hit", "move", s.info.ID, "target", target)
		res := battle.Result{Kind: battle.ResultHit, Target: target}
		s.results = append(s.results, res)
		return res
	}
	res := s.ctx.Resolver.Resolve(battle.Attempt{
		Attacker:   s.User(),
		Target:     s.Entity(target),
		Power:      power,
		Multiplier: s.multiplier,
		Unerring:   unerring,
	})
	if res.Target == "" {
		res.Target = target
	}
	s.results = append(s.results, res)
	s.damage += res.Damage
	s.ctx.Observe(battle.EffectApplied{Move: s.info.ID, Target: target, Result: res})
	return res
}

// Results returns every resolved effect in order.
func (s *Sequence) Results() []battle.Result {
	out := make([]battle.Result, len(s.results))
	copy(out, s.results)
	return out
}

// TotalDamage sums the damage of every resolved effect.
func (s *Sequence) TotalDamage() int {
	return s.damage
}

// View is a read-only snapshot for renderers.
type View struct {
	Move       string
	Branch     Branch
	Step       int
	Active     string
	Side       int
	Accepting  bool
	CheckKind  string
	Progress   float64
	Rank       skillcheck.Rank
	Multiplier float64
	Damage     int
	Ended      bool
	Tick       uint64
}

// Snapshot returns the current View.
func (s *Sequence) Snapshot() View {
	v := View{
		Move:       s.info.ID,
		Branch:     s.branch,
		Step:       s.step,
		Side:       len(s.side),
		Multiplier: s.multiplier,
		Damage:     s.damage,
		Ended:      s.ended,
		Tick:       s.tick,
	}
	if s.active != nil {
		v.Active = s.active.Kind().String()
	}
	if s.check != nil {
		v.Accepting = s.check.AcceptingInput()
		v.CheckKind = s.check.Kind().String()
		v.Progress = s.check.Progress()
		v.Rank = s.check.Rank()
	}
	return v
}
