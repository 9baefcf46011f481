package sequence

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
	"github.com/vovakirdan/tui-battle/internal/step"
)

const ms = time.Millisecond

type harness struct {
	ctx *battle.Context
	seq *Sequence
	rec *battle.Recorder
	log *bytes.Buffer
}

func end(s *Sequence) { s.End() }

// complete fills every branch without entries with a transition that ends
// the sequence.
func complete(t *Table) *Table {
	for _, b := range Branches {
		if t.Len(b) == 0 {
			t.On(b, end)
		}
	}
	return t
}

func newHarness(t *testing.T, seed int64, table *Table, opts Options) *harness {
	t.Helper()
	ctx := battle.NewContext(seed)
	buf := &bytes.Buffer{}
	ctx.Logger = log.New(buf)
	rec := &battle.Recorder{}
	ctx.Sink = rec

	hero := battle.NewEntity("hero", "Hero", 30, core.V(0, 0))
	hero.Attack = 4
	slime := battle.NewEntity("slime", "Slime", 20, core.V(10, 0))
	ctx.Entities.Add(hero)
	ctx.Entities.Add(slime)

	seq, err := New(ctx, Info{ID: "test", Name: "Test", Power: 5, User: "hero", Targets: []battle.EntityID{"slime"}}, complete(table), opts)
	require.NoError(t, err)
	seq.Start()
	return &harness{ctx: ctx, seq: seq, rec: rec, log: buf}
}

func (h *harness) tick(d time.Duration, in core.InputFrame) {
	h.ctx.Clock.Advance(d)
	h.seq.Update(in)
}

// runUntil ticks with an empty frame until the sequence ends or limit passes.
func (h *harness) runUntil(d, limit time.Duration) {
	for !h.seq.Ended() && h.ctx.Now() < limit {
		h.tick(d, core.NewInputFrame())
	}
}

func press() core.InputFrame {
	f := core.NewInputFrame()
	f.Set(core.ActionPrimary)
	return f
}

func TestValidate(t *testing.T) {
	err := NewTable().On(BranchStart, end).Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTable))
	assert.Contains(t, err.Error(), "branch main has no entries")

	err = complete(NewTable().On(BranchMain, end, nil)).Validate()
	require.ErrorIs(t, err, ErrInvalidTable)
	assert.Contains(t, err.Error(), "main/1 is nil")

	assert.NoError(t, complete(NewTable()).Validate())

	_, err = New(battle.NewContext(1), Info{ID: "broken"}, NewTable(), Options{})
	require.ErrorIs(t, err, ErrInvalidTable)

	_, err = New(nil, Info{}, complete(NewTable()), Options{})
	require.Error(t, err)
}

func TestParseBranchAndPolicy(t *testing.T) {
	for _, b := range Branches {
		got, err := ParseBranch(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
	_, err := ParseBranch("sideways")
	assert.Error(t, err)

	p, err := ParsePolicy("grace")
	require.NoError(t, err)
	assert.Equal(t, PolicyGrace, p)
	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyExplicit, p)

	var q InputPolicy
	require.NoError(t, q.UnmarshalText([]byte("end_on_branch_change")))
	assert.Equal(t, PolicyEndOnBranchChange, q)
	assert.Error(t, q.UnmarshalText([]byte("later")))
}

func TestChangeBranchResetsStep(t *testing.T) {
	entered := -1
	table := NewTable().
		On(BranchStart,
			func(s *Sequence) { s.Wait(100 * ms) },
			func(s *Sequence) { s.Wait(100 * ms) },
			func(s *Sequence) { s.ChangeBranch(BranchMain) },
		).
		On(BranchMain,
			func(s *Sequence) {
				entered = s.StepIndex()
				s.Wait(50 * ms)
			},
			end,
		)
	h := newHarness(t, 1, table, Options{})

	h.tick(50*ms, core.NewInputFrame())
	assert.Equal(t, Key{BranchStart, 1}, h.seq.Key())

	for i := 0; i < 4; i++ {
		h.tick(50*ms, core.NewInputFrame())
	}
	// At 250ms the second wait is done, the branch changes, and main/0 runs
	// on the same tick.
	assert.Equal(t, 0, entered)
	assert.Equal(t, Key{BranchMain, 1}, h.seq.Key())

	h.tick(50*ms, core.NewInputFrame())
	assert.True(t, h.seq.Ended())
	assert.Equal(t, []string{"start", "main"}, h.rec.Branches())
}

func TestSingleActiveStep(t *testing.T) {
	var installed []step.Step
	install := func(d time.Duration) Transition {
		return func(s *Sequence) {
			w := step.Wait(s.Context(), d)
			installed = append(installed, w)
			s.Then(w)
		}
	}
	table := NewTable().
		On(BranchStart, install(30*ms), install(0), install(45*ms), func(s *Sequence) { s.ChangeBranch(BranchMain) }).
		On(BranchMain, install(60*ms), install(10*ms), end)
	h := newHarness(t, 1, table, Options{})

	for !h.seq.Ended() {
		h.tick(16*ms, core.NewInputFrame())
		running := 0
		for _, st := range installed {
			if st.Started() && !st.Done() {
				running++
			}
		}
		require.LessOrEqual(t, running, 1, "at %v", h.ctx.Now())
		require.Less(t, h.ctx.Now(), time.Second)
	}
	assert.Len(t, installed, 5)
}

func TestBranchChangeAbandonsRunningStep(t *testing.T) {
	hookRan := false
	var long *step.WaitStep
	reached := ""
	table := NewTable().
		On(BranchStart, func(s *Sequence) {
			long = step.Wait(s.Context(), time.Second)
			long.SetHook(func() { hookRan = true })
			s.Then(long)
		}).
		On(BranchSuccess, func(s *Sequence) {
			reached = "success"
			s.End()
		}).
		On(BranchFailed, func(s *Sequence) {
			reached = "failed"
			s.End()
		})
	h := newHarness(t, 1, table, Options{})

	h.tick(0, core.NewInputFrame())
	require.NotNil(t, long)

	// Last call in a tick wins.
	h.seq.ChangeBranch(BranchSuccess)
	h.seq.ChangeBranch(BranchFailed)
	assert.True(t, long.Done())
	assert.Nil(t, h.seq.Active())

	h.tick(16*ms, core.NewInputFrame())
	assert.Equal(t, "failed", reached)
	assert.False(t, hookRan)
}

func TestWaitCompletesOnBoundaryTick(t *testing.T) {
	var doneAt time.Duration = -1
	table := NewTable().On(BranchStart,
		func(s *Sequence) { s.Wait(100 * ms) },
		func(s *Sequence) {
			doneAt = s.Now()
			s.End()
		},
	)
	h := newHarness(t, 1, table, Options{})

	h.tick(0, core.NewInputFrame())
	for i := 0; i < 3; i++ {
		h.tick(30*ms, core.NewInputFrame())
	}
	assert.Equal(t, time.Duration(-1), doneAt, "wait finished early at 90ms")

	h.tick(30*ms, core.NewInputFrame())
	assert.Equal(t, 120*ms, doneAt)
}

func TestMoveToSnapsThroughSequence(t *testing.T) {
	table := NewTable().On(BranchStart,
		func(s *Sequence) { s.MoveTo("hero", core.V(10, 5), 200*ms, core.EaseOutQuad) },
		func(s *Sequence) { s.MoveHome("slime", 0, core.EaseLinear) },
		end,
	)
	h := newHarness(t, 1, table, Options{})

	h.tick(0, core.NewInputFrame())
	for i := 0; i < 3; i++ {
		h.tick(70*ms, core.NewInputFrame())
	}
	hero := h.seq.Entity("hero")
	assert.Equal(t, core.V(10, 5), hero.Position())
	// The zero-length move home ends on its first update, on the same tick.
	assert.True(t, h.seq.Ended())
}

func TestMissingEntityFailsOpen(t *testing.T) {
	table := NewTable().On(BranchStart,
		func(s *Sequence) { s.MoveTo("ghost", core.V(1, 1), time.Second, core.EaseLinear) },
		func(s *Sequence) { s.Animate("ghost", "spin", time.Second) },
		end,
	)
	h := newHarness(t, 1, table, Options{})
	h.tick(0, core.NewInputFrame())
	h.tick(16*ms, core.NewInputFrame())
	assert.True(t, h.seq.Ended())
}

func TestOnMissJumpsOnSameTick(t *testing.T) {
	missTick := uint64(0)
	table := NewTable().
		On(BranchStart, func(s *Sequence) { s.ChangeBranch(BranchMain) }).
		On(BranchMain, func(s *Sequence) {
			s.Hit("slime", s.Info().Power)
			if s.Branch() == BranchMain {
				s.ChangeBranch(BranchSuccess)
			}
		}).
		On(BranchMiss, func(s *Sequence) {
			missTick = s.Ticks()
			s.End()
		})
	h := newHarness(t, 1, table, Options{})
	h.ctx.Resolver = battle.ResolverFunc(func(a battle.Attempt) battle.Result {
		return battle.Result{Kind: battle.ResultMiss}
	})

	h.tick(16*ms, core.NewInputFrame())
	assert.True(t, h.seq.Ended())
	assert.Equal(t, uint64(1), missTick)
	assert.Equal(t, []string{"start", "main", "miss"}, h.rec.Branches())
}

func TestOnMissOverride(t *testing.T) {
	handled := 0
	opts := Options{Hooks: Hooks{OnMiss: func(s *Sequence) bool {
		handled++
		return true
	}}}
	h := newHarness(t, 1, NewTable(), opts)

	assert.False(t, h.seq.OnMiss())
	assert.Equal(t, BranchStart, h.seq.Branch())
	assert.Equal(t, 1, handled)

	plain := newHarness(t, 1, NewTable(), Options{})
	assert.True(t, plain.seq.OnMiss())
	assert.Equal(t, BranchMiss, plain.seq.Branch())
}

func TestInterruptionIsRecordedOnly(t *testing.T) {
	table := NewTable().
		On(BranchStart, func(s *Sequence) {
			s.Hit("slime", 5)
			s.Advance()
		}, func(s *Sequence) { s.Wait(time.Second) })
	h := newHarness(t, 1, table, Options{})
	slime := h.seq.Entity("slime")
	slime.Inflict(battle.StatusCounter, 1)

	h.tick(0, core.NewInputFrame())
	assert.Equal(t, battle.InterruptCounter, h.seq.Interruption())
	assert.Equal(t, BranchStart, h.seq.Branch())
	assert.False(t, h.seq.Ended())

	var seen bool
	for _, o := range h.rec.Observations {
		if in, ok := o.(battle.Interrupted); ok && in.Kind == battle.InterruptCounter {
			seen = true
		}
	}
	assert.True(t, seen)
}

func TestHitAllMissesOnlyWhenEveryTargetEvades(t *testing.T) {
	calls := 0
	table := NewTable().On(BranchStart, func(s *Sequence) {
		s.HitAll(5)
		if s.Branch() == BranchStart {
			s.Advance()
		}
	}, end)
	h := newHarness(t, 1, table, Options{})
	h.seq.info.Targets = []battle.EntityID{"slime", "hero"}
	h.ctx.Resolver = battle.ResolverFunc(func(a battle.Attempt) battle.Result {
		calls++
		if a.Target.ID == "slime" {
			return battle.Result{Kind: battle.ResultMiss}
		}
		return battle.Result{Kind: battle.ResultHit, Damage: 3}
	})

	h.tick(0, core.NewInputFrame())
	assert.Equal(t, 2, calls)
	assert.True(t, h.seq.Ended())
	assert.Equal(t, []string{"start"}, h.rec.Branches())
	assert.Equal(t, 3, h.seq.TotalDamage())
	assert.Len(t, h.seq.Results(), 2)
}

func TestSideWorkRunsAlongsideMainLine(t *testing.T) {
	var side *step.WaitStep
	sideHook := false
	table := NewTable().On(BranchStart,
		func(s *Sequence) {
			side = step.Wait(s.Context(), 200*ms)
			side.SetHook(func() { sideHook = true })
			s.AddSideWork(side)
			s.Wait(500 * ms)
		},
		end,
	)
	h := newHarness(t, 1, table, Options{})

	h.tick(0, core.NewInputFrame())
	require.Equal(t, 1, h.seq.SideCount())

	var removedAt, endedAt time.Duration = -1, -1
	for h.ctx.Now() < time.Second && !h.seq.Ended() {
		h.tick(50*ms, core.NewInputFrame())
		if removedAt < 0 && h.seq.SideCount() == 0 {
			removedAt = h.ctx.Now()
		}
		if h.seq.Ended() {
			endedAt = h.ctx.Now()
		}
		if h.ctx.Now() < 500*ms {
			assert.Equal(t, step.KindWait, h.seq.Active().Kind())
		}
	}

	assert.Equal(t, 200*ms, removedAt)
	assert.Equal(t, 500*ms, endedAt)
	assert.True(t, sideHook)
}

func TestWaitSideWork(t *testing.T) {
	table := NewTable().On(BranchStart,
		func(s *Sequence) {
			s.AddSideWork(step.Wait(s.Context(), 120*ms))
			s.AddSideWork(step.Wait(s.Context(), 60*ms))
			s.WaitSideWork()
		},
		end,
	)
	h := newHarness(t, 1, table, Options{})
	h.tick(0, core.NewInputFrame())
	h.runUntil(20*ms, time.Second)
	assert.Equal(t, 120*ms, h.ctx.Now())
}

func TestCommandSuccessBranchesOnSameTick(t *testing.T) {
	successTick := uint64(0)
	table := NewTable().
		On(BranchStart, func(s *Sequence) { s.ChangeBranch(BranchMain) }).
		On(BranchMain, func(s *Sequence) { s.WaitCheck(skillcheck.Infinite) }).
		On(BranchSuccess, func(s *Sequence) {
			successTick = s.Ticks()
			s.End()
		})
	opts := Options{Check: &skillcheck.Config{Kind: skillcheck.KindRepeatCount, Target: 1, Duration: skillcheck.Infinite}}
	h := newHarness(t, 1, table, opts)

	h.tick(0, core.NewInputFrame())
	require.True(t, h.seq.Check().AcceptingInput())

	h.tick(16*ms, press())
	assert.Equal(t, uint64(2), successTick)
	assert.Equal(t, 1, h.seq.Successes())
	assert.Equal(t, []float64{1}, h.seq.Responses())
	assert.Equal(t, 1.0, h.seq.LastResponse())
	assert.False(t, h.seq.Check().AcceptingInput())
	assert.NotContains(t, h.log.String(), "still accepting")
}

func TestCheckOpenedThisTickSeesThisTicksInput(t *testing.T) {
	t.Run("timed window", func(t *testing.T) {
		successTick := uint64(0)
		table := NewTable().
			On(BranchStart, func(s *Sequence) { s.WaitCheck(skillcheck.Infinite) }).
			On(BranchSuccess, func(s *Sequence) {
				successTick = s.Ticks()
				s.End()
			})
		opts := Options{Check: &skillcheck.Config{Kind: skillcheck.KindTimedWindow, WindowEnd: 100 * ms}}
		h := newHarness(t, 1, table, opts)

		h.tick(0, press())
		assert.Equal(t, uint64(1), successTick)
		assert.Equal(t, 1, h.seq.Successes())
		assert.True(t, h.seq.Ended())
	})

	t.Run("sampled once", func(t *testing.T) {
		table := NewTable().On(BranchStart, func(s *Sequence) { s.WaitCheck(skillcheck.Infinite) })
		opts := Options{Check: &skillcheck.Config{Kind: skillcheck.KindRepeatCount, Target: 3, Duration: skillcheck.Infinite}}
		h := newHarness(t, 1, table, opts)

		h.tick(0, press())
		assert.Equal(t, 1, h.seq.Check().Count())
		h.tick(16*ms, press())
		assert.Equal(t, 2, h.seq.Check().Count())
		assert.False(t, h.seq.Ended())
	})
}

func TestNewValidatesCheck(t *testing.T) {
	ctx := battle.NewContext(1)
	ctx.Logger = log.New(io.Discard)
	info := Info{ID: "bad", User: "hero"}

	_, err := New(ctx, info, complete(NewTable()), Options{Check: &skillcheck.Config{Kind: skillcheck.KindHoldRelease, BandLow: 0.5, BandHigh: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill time")

	_, err = New(ctx, info, complete(NewTable()), Options{Check: &skillcheck.Config{Kind: skillcheck.KindRepeatCount}})
	assert.Error(t, err)

	// Negative bounds are coerced before validation.
	seq, err := New(ctx, info, complete(NewTable()), Options{Check: &skillcheck.Config{Kind: skillcheck.KindTimedWindow, WindowStart: -100 * ms, WindowEnd: -200 * ms}})
	require.NoError(t, err)
	assert.Equal(t, 200*ms, seq.Check().Config().WindowEnd)
}

func TestNegativeEventAndDialogueLengths(t *testing.T) {
	table := NewTable().
		On(BranchStart, func(s *Sequence) { s.Event("boom", -100*ms) }).
		On(BranchStart, func(s *Sequence) { s.Say("Hero", "hi", -100*ms) }).
		On(BranchStart, end)
	h := newHarness(t, 1, table, Options{})

	h.tick(0, core.NewInputFrame())
	h.runUntil(10*ms, time.Second)
	assert.True(t, h.seq.Ended())
	assert.Equal(t, 200*ms, h.ctx.Now())
	assert.Equal(t, 2, strings.Count(h.log.String(), "negative step duration coerced"))
}

func TestCommandFailedBranch(t *testing.T) {
	reached := false
	table := NewTable().
		On(BranchStart, func(s *Sequence) { s.WaitCheck(skillcheck.Infinite) }).
		On(BranchFailed, func(s *Sequence) {
			reached = true
			s.End()
		})
	opts := Options{Check: &skillcheck.Config{Kind: skillcheck.KindTimedWindow, WindowStart: 100 * ms, WindowEnd: 200 * ms}}
	h := newHarness(t, 1, table, opts)

	h.tick(0, core.NewInputFrame())
	h.runUntil(50*ms, time.Second)
	assert.True(t, reached)
	assert.Equal(t, 1, h.seq.Failures())
	assert.Equal(t, 250*ms, h.ctx.Now())
}

func TestSuccessHookAdjustsMultiplier(t *testing.T) {
	opts := Options{
		Check: &skillcheck.Config{Kind: skillcheck.KindCooldown, Cooldown: 100 * ms, Duration: 300 * ms},
		Hooks: Hooks{OnCommandSuccess: func(s *Sequence) bool {
			s.SetMultiplier(s.Multiplier() + 0.25)
			return true
		}},
	}
	table := NewTable().On(BranchStart,
		func(s *Sequence) { s.WaitCheck(skillcheck.Infinite) },
		end,
	)
	h := newHarness(t, 1, table, opts)

	h.tick(0, core.NewInputFrame())
	for !h.seq.Ended() && h.ctx.Now() < time.Second {
		h.tick(50*ms, press())
	}

	assert.Equal(t, 300*ms, h.ctx.Now())
	assert.Equal(t, 3, h.seq.Successes())
	assert.InDelta(t, 1.75, h.seq.Multiplier(), 1e-9)
	assert.Equal(t, []string{"start"}, h.rec.Branches())
}

func TestInputPolicies(t *testing.T) {
	table := func() *Table {
		return NewTable().
			On(BranchStart, func(s *Sequence) {
				s.StartCheck()
				s.ChangeBranch(BranchMain)
			}).
			On(BranchMain, func(s *Sequence) { s.Wait(time.Second) }, end)
	}
	check := &skillcheck.Config{Kind: skillcheck.KindRepeatCount, Target: 100, Duration: skillcheck.Infinite}

	t.Run("explicit warns and keeps accepting", func(t *testing.T) {
		h := newHarness(t, 1, table(), Options{Check: check})
		h.tick(0, core.NewInputFrame())
		assert.True(t, h.seq.Check().AcceptingInput())
		assert.Contains(t, h.log.String(), "skill check still accepting input after branch change")
	})

	t.Run("end on branch change", func(t *testing.T) {
		h := newHarness(t, 1, table(), Options{Check: check, Policy: PolicyEndOnBranchChange})
		h.tick(0, core.NewInputFrame())
		assert.False(t, h.seq.Check().AcceptingInput())
		assert.NotContains(t, h.log.String(), "still accepting")
	})

	t.Run("grace window", func(t *testing.T) {
		h := newHarness(t, 1, table(), Options{Check: check, Policy: PolicyGrace, GraceWindow: 100 * ms})
		h.tick(0, core.NewInputFrame())
		assert.True(t, h.seq.Check().AcceptingInput())

		h.tick(50*ms, press())
		assert.True(t, h.seq.Check().AcceptingInput())
		assert.Equal(t, 1, h.seq.Check().Count())

		h.tick(50*ms, press())
		assert.False(t, h.seq.Check().AcceptingInput())
		assert.Equal(t, 2, h.seq.Check().Count(), "input on the closing tick still counts")
	})

	t.Run("grace default window", func(t *testing.T) {
		h := newHarness(t, 1, table(), Options{Check: check, Policy: PolicyGrace})
		assert.Equal(t, DefaultGraceWindow, h.seq.grace)
	})
}

func TestStallAndUnhandledKeysAreDiagnosed(t *testing.T) {
	t.Run("no progress", func(t *testing.T) {
		h := newHarness(t, 1, NewTable().On(BranchStart, func(*Sequence) {}), Options{})
		h.tick(16*ms, core.NewInputFrame())
		h.tick(16*ms, core.NewInputFrame())
		assert.False(t, h.seq.Ended())
		assert.Equal(t, 2, h.seq.Diagnostics())
		assert.Equal(t, 1, strings.Count(h.log.String(), "transition made no progress"))
	})

	t.Run("past the end of a branch", func(t *testing.T) {
		h := newHarness(t, 1, NewTable().On(BranchStart, func(s *Sequence) { s.Advance() }), Options{})
		h.tick(16*ms, core.NewInputFrame())
		assert.Equal(t, Key{BranchStart, 1}, h.seq.Key())
		assert.Contains(t, h.log.String(), "no transition for key")
		assert.False(t, h.seq.Ended())
	})

	t.Run("dispatch cap", func(t *testing.T) {
		calls := 0
		table := NewTable().On(BranchStart, func(s *Sequence) {
			calls++
			s.ChangeBranch(BranchStart)
		})
		h := newHarness(t, 1, table, Options{})
		h.tick(16*ms, core.NewInputFrame())
		assert.Equal(t, maxDispatch, calls)
		assert.Contains(t, h.log.String(), "dispatch limit reached")
	})
}

func TestEndTearsDown(t *testing.T) {
	ended := 0
	var side, main *step.WaitStep
	table := NewTable().On(BranchStart, func(s *Sequence) {
		side = step.Wait(s.Context(), time.Second)
		main = step.Wait(s.Context(), time.Second)
		s.AddSideWork(side)
		s.StartCheck()
		s.Then(main)
	})
	opts := Options{
		Check: &skillcheck.Config{Kind: skillcheck.KindRepeatCount, Target: 3, Duration: skillcheck.Infinite},
		Hooks: Hooks{OnEnd: func(*Sequence) { ended++ }},
	}
	h := newHarness(t, 1, table, opts)
	h.tick(0, core.NewInputFrame())

	h.seq.End()
	h.seq.End()
	assert.True(t, side.Done())
	assert.True(t, main.Done())
	assert.False(t, h.seq.Check().AcceptingInput())
	assert.Equal(t, 1, ended)

	ticks := h.seq.Ticks()
	h.tick(16*ms, press())
	assert.Equal(t, ticks, h.seq.Ticks())

	count := 0
	for _, o := range h.rec.Observations {
		if _, ok := o.(battle.ActionEnded); ok {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestUpdateBeforeStartIsIgnored(t *testing.T) {
	ctx := battle.NewContext(1)
	ctx.Logger = log.New(io.Discard)
	seq, err := New(ctx, Info{ID: "idle"}, complete(NewTable()), Options{})
	require.NoError(t, err)
	seq.Update(core.NewInputFrame())
	assert.Equal(t, uint64(0), seq.Ticks())
	assert.False(t, seq.Ended())
}

func TestDeterministicTraces(t *testing.T) {
	run := func(seed int64) []TraceEntry {
		table := NewTable().
			On(BranchStart,
				func(s *Sequence) { s.Wait(time.Duration(50+s.Rand().Intn(100)) * ms) },
				func(s *Sequence) { s.ChangeBranch(BranchMain) },
			).
			On(BranchMain, func(s *Sequence) {
				if res := s.Hit("slime", s.Info().Power); res.Kind == battle.ResultHit {
					s.ChangeBranch(BranchSuccess)
				}
			}).
			On(BranchSuccess, func(s *Sequence) { s.Wait(80 * ms) }, end).
			On(BranchMiss, func(s *Sequence) { s.Wait(40 * ms) }, end)
		h := newHarness(t, seed, table, Options{})
		h.seq.Entity("slime").Evasion = 0.5
		h.runUntil(16*ms, 5*time.Second)
		require.True(t, h.seq.Ended())
		return h.seq.Trace()
	}

	for seed := int64(1); seed <= 5; seed++ {
		first := run(seed)
		second := run(seed)
		require.NotEmpty(t, first)
		assert.Equal(t, first, second, "seed %d", seed)
	}
}

func TestSnapshot(t *testing.T) {
	table := NewTable().On(BranchStart, func(s *Sequence) {
		s.StartCheck()
		s.Wait(time.Second)
	})
	opts := Options{Check: &skillcheck.Config{Kind: skillcheck.KindRepeatCount, Target: 4, Duration: skillcheck.Infinite}}
	h := newHarness(t, 1, table, opts)
	h.tick(0, core.NewInputFrame())
	h.tick(16*ms, press())

	v := h.seq.Snapshot()
	assert.Equal(t, "test", v.Move)
	assert.Equal(t, BranchStart, v.Branch)
	assert.Equal(t, 1, v.Step)
	assert.Equal(t, "wait", v.Active)
	assert.True(t, v.Accepting)
	assert.Equal(t, "repeat_count", v.CheckKind)
	assert.InDelta(t, 0.25, v.Progress, 1e-9)
}

func TestScratchValues(t *testing.T) {
	h := newHarness(t, 1, NewTable(), Options{})
	h.seq.SetValue("charge", 0.5)
	assert.Equal(t, 0.5, h.seq.Value("charge"))
	assert.Equal(t, 0.0, h.seq.Value("missing"))
	vals := h.seq.Values()
	vals["charge"] = 9
	assert.Equal(t, 0.5, h.seq.Value("charge"))
}
