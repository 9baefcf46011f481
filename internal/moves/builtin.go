package moves

import (
	"time"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/sequence"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
)

const (
	approachTime = 300 * time.Millisecond
	retreatTime  = 250 * time.Millisecond
	hurtTime     = 200 * time.Millisecond
	dodgeTime    = 250 * time.Millisecond

	// critChance is the chance a full charge lands a critical hit.
	critChance = 0.25
)

func init() {
	Register("strike", strike)
	Register("charge", charge)
	Register("flurry", flurry)
	Register("guard", guard)
	Register("probe", probe)
	Register("delayed", delayed)
}

// builtin is a move defined in Go.
type builtin struct {
	id    string
	title string
	desc  string
	power float64
	check *skillcheck.Config
	build func() (*sequence.Table, sequence.Hooks)
}

func (b *builtin) ID() string          { return b.id }
func (b *builtin) Title() string       { return b.title }
func (b *builtin) Description() string { return b.desc }
func (b *builtin) Power() float64      { return b.power }

func (b *builtin) Check() *skillcheck.Config {
	if b.check == nil {
		return nil
	}
	c := *b.check
	return &c
}

func (b *builtin) Build() (*sequence.Table, sequence.Hooks) {
	return b.build()
}

func target(s *sequence.Sequence) battle.EntityID {
	if ts := s.Info().Targets; len(ts) > 0 {
		return ts[0]
	}
	return ""
}

// approach moves the user next to the first target, on the side facing it.
func approach(s *sequence.Sequence) {
	u := s.User()
	var dest core.Vec2
	if u != nil {
		dest = u.Position()
	}
	if t := s.Target(0); t != nil {
		side := -2.0
		if u != nil && u.Home.X > t.Position().X {
			side = 2
		}
		dest = t.Position().Add(core.V(side, 0))
	}
	s.MoveTo(s.Info().User, dest, approachTime, core.EaseOutQuad)
}

func retreat(s *sequence.Sequence) {
	s.MoveHome(s.Info().User, retreatTime, core.EaseInOutQuad)
}

func toMain(s *sequence.Sequence) { s.ChangeBranch(sequence.BranchMain) }

func toEnd(s *sequence.Sequence) { s.ChangeBranch(sequence.BranchEnd) }

func toFailed(s *sequence.Sequence) { s.ChangeBranch(sequence.BranchFailed) }

func hurt(s *sequence.Sequence) { s.Animate(target(s), "hurt", hurtTime) }

func dodge(s *sequence.Sequence) { s.Animate(target(s), "dodge", dodgeTime) }

// hit resolves the move's power against the first target. A miss has
// already jumped to BranchMiss; an interruption ends the action.
func hit(s *sequence.Sequence) {
	b := s.Branch()
	res := s.Hit(target(s), s.Info().Power)
	if s.Branch() != b {
		return
	}
	if res.Kind == battle.ResultInterrupted {
		s.ChangeBranch(sequence.BranchEnd)
		return
	}
	s.Advance()
}

// endBranch staggers an interrupted user, walks them home, and ends.
func endBranch() []sequence.Transition {
	return []sequence.Transition{
		func(s *sequence.Sequence) {
			if s.Interruption() != battle.InterruptNone {
				s.Animate(s.Info().User, "stagger", 300*time.Millisecond)
				return
			}
			s.Advance()
		},
		func(s *sequence.Sequence) {
			if u := s.User(); u != nil && u.Position() != u.Home {
				retreat(s)
				return
			}
			s.Advance()
		},
		func(s *sequence.Sequence) { s.End() },
	}
}

func missBranch() []sequence.Transition {
	return []sequence.Transition{dodge, retreat, toEnd}
}

func strike() Move {
	return &builtin{
		id:    "strike",
		title: "Strike",
		desc:  "Dash in and swing. Press as the blade comes down.",
		power: 8,
		check: &skillcheck.Config{
			Kind:        skillcheck.KindTimedWindow,
			WindowStart: 250 * time.Millisecond,
			WindowEnd:   450 * time.Millisecond,
		},
		build: func() (*sequence.Table, sequence.Hooks) {
			t := sequence.NewTable().
				On(sequence.BranchStart, approach, toMain).
				On(sequence.BranchMain,
					func(s *sequence.Sequence) {
						s.AnimateSide(s.Info().User, "swing", 500*time.Millisecond)
						s.WaitCheck(time.Second)
					},
					toFailed,
				).
				On(sequence.BranchSuccess,
					func(s *sequence.Sequence) {
						s.SetMultiplier(rankMultiplier(s.Rank()))
						hit(s)
					},
					hurt, retreat, toEnd,
				).
				On(sequence.BranchFailed,
					func(s *sequence.Sequence) {
						s.SetMultiplier(0.5)
						hit(s)
					},
					hurt, retreat, toEnd,
				).
				On(sequence.BranchMiss, missBranch()...).
				On(sequence.BranchEnd, endBranch()...)
			return t, sequence.Hooks{}
		},
	}
}

func charge() Move {
	return &builtin{
		id:    "charge",
		title: "Charge",
		desc:  "Hold to build power and release inside the band.",
		power: 12,
		check: &skillcheck.Config{
			Kind:     skillcheck.KindHoldRelease,
			Duration: 2 * time.Second,
			FillTime: time.Second,
			BandLow:  0.8,
			BandHigh: 1.0,
			MaxHold:  1400 * time.Millisecond,
		},
		build: func() (*sequence.Table, sequence.Hooks) {
			t := sequence.NewTable().
				On(sequence.BranchStart,
					func(s *sequence.Sequence) { s.Animate(s.Info().User, "crouch", 200*time.Millisecond) },
					toMain,
				).
				On(sequence.BranchMain,
					func(s *sequence.Sequence) { s.WaitCheck(3 * time.Second) },
					toFailed,
				).
				On(sequence.BranchSuccess,
					func(s *sequence.Sequence) {
						mult := rankMultiplier(s.Rank())
						if s.Rand().Float64() < critChance {
							mult *= 2
							s.SetValue("critical", 1)
						}
						s.SetMultiplier(mult)
						s.Advance()
					},
					approach, hit, hurt, retreat, toEnd,
				).
				On(sequence.BranchFailed,
					func(s *sequence.Sequence) {
						// A botched release still lands part of the charge.
						s.SetMultiplier(core.ClampF(s.Value("charge"), 0.25, 1) * 0.5)
						s.Advance()
					},
					approach, hit, hurt, retreat, toEnd,
				).
				On(sequence.BranchMiss, missBranch()...).
				On(sequence.BranchEnd, endBranch()...)
			hooks := sequence.Hooks{
				OnCommandResponse: func(s *sequence.Sequence, v float64) {
					s.SetValue("charge", v)
				},
			}
			return t, hooks
		},
	}
}

func flurry() Move {
	return &builtin{
		id:    "flurry",
		title: "Flurry",
		desc:  "Mash the button to land a burst of jabs.",
		power: 3,
		check: &skillcheck.Config{
			Kind:     skillcheck.KindRepeatCount,
			Target:   5,
			Duration: 1500 * time.Millisecond,
		},
		build: func() (*sequence.Table, sequence.Hooks) {
			t := sequence.NewTable().
				On(sequence.BranchStart, approach, toMain).
				On(sequence.BranchMain,
					func(s *sequence.Sequence) { s.WaitCheck(2 * time.Second) },
					toFailed,
				).
				On(sequence.BranchSuccess,
					func(s *sequence.Sequence) { s.WaitSideWork() },
					func(s *sequence.Sequence) {
						hits := 3
						if s.Rank() >= skillcheck.RankGood {
							hits++
						}
						for i := 0; i < hits; i++ {
							res := s.Hit(target(s), s.Info().Power)
							if s.Branch() != sequence.BranchSuccess {
								return
							}
							if res.Kind == battle.ResultInterrupted {
								s.ChangeBranch(sequence.BranchEnd)
								return
							}
						}
						s.SetValue("hits", float64(hits))
						s.Advance()
					},
					hurt, retreat, toEnd,
				).
				On(sequence.BranchFailed,
					func(s *sequence.Sequence) { s.WaitSideWork() },
					hit, hurt, retreat, toEnd,
				).
				On(sequence.BranchMiss,
					func(s *sequence.Sequence) { s.WaitSideWork() },
					dodge, retreat, toEnd,
				).
				On(sequence.BranchEnd, endBranch()...)
			hooks := sequence.Hooks{
				// Every counted press throws a jab alongside the check.
				OnCommandResponse: func(s *sequence.Sequence, v float64) {
					s.AnimateSide(s.Info().User, "jab", 120*time.Millisecond)
				},
			}
			return t, hooks
		},
	}
}

func guard() Move {
	return &builtin{
		id:    "guard",
		title: "Guard",
		desc:  "Tap each time the guard is ready to stack protection.",
		power: 0,
		check: &skillcheck.Config{
			Kind:     skillcheck.KindCooldown,
			Cooldown: 300 * time.Millisecond,
			Duration: 1200 * time.Millisecond,
		},
		build: func() (*sequence.Table, sequence.Hooks) {
			t := sequence.NewTable().
				On(sequence.BranchStart,
					func(s *sequence.Sequence) { s.Animate(s.Info().User, "brace", 150*time.Millisecond) },
					toMain,
				).
				On(sequence.BranchMain,
					func(s *sequence.Sequence) { s.WaitCheck(2 * time.Second) },
					func(s *sequence.Sequence) {
						n := s.Successes()
						if n == 0 {
							s.ChangeBranch(sequence.BranchFailed)
							return
						}
						turns := 1 + n/2
						if u := s.User(); u != nil {
							u.Inflict(battle.StatusShield, turns)
						}
						s.SetValue("shield_turns", float64(turns))
						s.ChangeBranch(sequence.BranchSuccess)
					},
				).
				On(sequence.BranchSuccess,
					func(s *sequence.Sequence) { s.Animate(s.Info().User, "guard", 300*time.Millisecond) },
					toEnd,
				).
				On(sequence.BranchFailed,
					func(s *sequence.Sequence) {
						name := "?"
						if u := s.User(); u != nil {
							name = u.Name
						}
						s.Say(name, "Too slow!", 400*time.Millisecond)
					},
					toEnd,
				).
				On(sequence.BranchMiss, toEnd).
				On(sequence.BranchEnd, endBranch()...)
			hooks := sequence.Hooks{
				// Successes build the guard instead of branching.
				OnCommandSuccess: func(s *sequence.Sequence) bool {
					s.SetMultiplier(s.Multiplier() + 0.2)
					return true
				},
			}
			return t, hooks
		},
	}
}

func probe() Move {
	return &builtin{
		id:    "probe",
		title: "Probe",
		desc:  "Feint to read the target, then hit for real.",
		power: 6,
		build: func() (*sequence.Table, sequence.Hooks) {
			t := sequence.NewTable().
				On(sequence.BranchStart, approach, toMain).
				On(sequence.BranchMain,
					func(s *sequence.Sequence) {
						s.SetValue("probing", 1)
						s.Hit(target(s), 0)
						s.SetValue("probing", 0)
						s.Advance()
					},
					func(s *sequence.Sequence) {
						res := s.Hit(target(s), s.Info().Power)
						if s.Branch() != sequence.BranchMain {
							return
						}
						if res.Kind == battle.ResultInterrupted {
							s.ChangeBranch(sequence.BranchEnd)
							return
						}
						s.ChangeBranch(sequence.BranchSuccess)
					},
				).
				On(sequence.BranchSuccess, hurt, retreat, toEnd).
				On(sequence.BranchFailed, retreat, toEnd).
				On(sequence.BranchMiss, missBranch()...).
				On(sequence.BranchEnd, endBranch()...)
			hooks := sequence.Hooks{
				// A dodged feint is information, not a miss.
				OnMiss: func(s *sequence.Sequence) bool {
					if s.Value("probing") == 1 {
						s.SetValue("probe_missed", 1)
						return true
					}
					return false
				},
			}
			return t, hooks
		},
	}
}

func delayed() Move {
	return &builtin{
		id:    "delayed",
		title: "Delayed Blast",
		desc:  "Gather power now; the blast lands when the user's next turn starts.",
		power: 15,
		build: func() (*sequence.Table, sequence.Hooks) {
			t := sequence.NewTable().
				On(sequence.BranchStart,
					func(s *sequence.Sequence) { s.Animate(s.Info().User, "focus", 300*time.Millisecond) },
					func(s *sequence.Sequence) {
						ctx := s.Context()
						if ctx.Scheduler == nil {
							s.Advance()
							return
						}
						info := s.Info()
						tgt := target(s)
						id := ctx.Scheduler.Schedule(info.User, ctx.Turn+1, func(c *battle.Context) {
							detonate(c, info, tgt)
						})
						s.SetValue("continuation", float64(id))
						s.Advance()
					},
					toEnd,
				).
				On(sequence.BranchMain, toEnd).
				On(sequence.BranchSuccess, toEnd).
				On(sequence.BranchFailed, toEnd).
				On(sequence.BranchMiss, toEnd).
				On(sequence.BranchEnd, endBranch()...)
			return t, sequence.Hooks{}
		},
	}
}

// detonate lands the second half of the delayed move.
func detonate(ctx *battle.Context, info sequence.Info, tgt battle.EntityID) {
	if ctx.Resolver == nil {
		return
	}
	var attacker, victim *battle.Entity
	if ctx.Entities != nil {
		attacker, _ = ctx.Entities.Get(info.User)
		victim, _ = ctx.Entities.Get(tgt)
	}
	res := ctx.Resolver.Resolve(battle.Attempt{
		Attacker: attacker,
		Target:   victim,
		Power:    info.Power,
		Unerring: true,
	})
	if res.Target == "" {
		res.Target = tgt
	}
	ctx.Log().Debug("delayed effect landed", "move", info.ID, "target", tgt, "result", res.Kind, "damage", res.Damage)
	ctx.Observe(battle.EffectApplied{Move: info.ID, Target: tgt, Result: res})
}
