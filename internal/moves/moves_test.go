package moves

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/sequence"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
)

const ms = time.Millisecond

// stage returns the default stage with evasion disabled so hits are
// deterministic.
func stage(t *testing.T) *battle.Context {
	t.Helper()
	ctx := NewStage(7)
	ctx.Logger = log.New(io.Discard)
	for _, e := range ctx.Entities.All() {
		e.Evasion = 0
	}
	return ctx
}

func combatant(t *testing.T, ctx *battle.Context, id battle.EntityID) *battle.Entity {
	t.Helper()
	e, ok := ctx.Entities.Get(id)
	require.True(t, ok, "missing %s", id)
	return e
}

func run(t *testing.T, ctx *battle.Context, id string, script InputScript) Report {
	t.Helper()
	rep, err := Execute(context.Background(), ctx, id, StageSetup(), script, Runner{TickRate: 100})
	require.NoError(t, err)
	return rep
}

func pressAt(d time.Duration) InputScript {
	return InputScript{{At: d, Action: core.ActionPrimary}}
}

func TestEveryMoveRunsToCompletion(t *testing.T) {
	list := List()
	require.NotEmpty(t, list)
	for _, l := range list {
		t.Run(l.ID, func(t *testing.T) {
			ctx := NewStage(1)
			ctx.Logger = log.New(io.Discard)
			rep, err := Execute(context.Background(), ctx, l.ID, StageSetup(), nil, Runner{TickRate: 60})
			require.NoError(t, err)
			assert.Equal(t, l.ID, rep.Move)
			assert.NotEmpty(t, rep.RunID)
			assert.NotEmpty(t, rep.Trace)
		})
	}
}

func TestRegistry(t *testing.T) {
	for _, id := range []string{"strike", "charge", "flurry", "guard", "probe", "delayed", "lunge", "volley", "parley"} {
		assert.True(t, Exists(id), id)
	}

	_, err := Create("nope")
	assert.ErrorIs(t, err, ErrUnknownMove)

	err = Add("strike", strike, "test")
	assert.ErrorIs(t, err, ErrDuplicateMove)
	assert.Panics(t, func() { Register("strike", strike) })

	list := List()
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
	for _, l := range list {
		if l.ID == "charge" {
			assert.Equal(t, "hold_release", l.Check)
			assert.Equal(t, "builtin", l.Source)
		}
		if l.ID == "probe" {
			assert.Empty(t, l.Check)
		}
	}
}

func TestStrike(t *testing.T) {
	t.Run("great press", func(t *testing.T) {
		ctx := stage(t)
		rep := run(t, ctx, "strike", pressAt(650*ms))
		assert.Equal(t, "success", rep.Outcome)
		assert.Equal(t, skillcheck.RankGreat, rep.Rank)
		assert.InDelta(t, 1.5, rep.Multiplier, 1e-9)
		assert.Equal(t, 15, rep.Damage)
		assert.Equal(t, 15, combatant(t, ctx, Slime).HP)

		hero := combatant(t, ctx, Hero)
		assert.Equal(t, hero.Home, hero.Position())
	})

	t.Run("no press", func(t *testing.T) {
		ctx := stage(t)
		rep := run(t, ctx, "strike", nil)
		assert.Equal(t, "failed", rep.Outcome)
		assert.InDelta(t, 0.5, rep.Multiplier, 1e-9)
		assert.Equal(t, 7, rep.Damage)
	})

	t.Run("early press locks out", func(t *testing.T) {
		ctx := stage(t)
		rep := run(t, ctx, "strike", Mash(400*ms, 250*ms, 2))
		assert.Equal(t, "failed", rep.Outcome)
	})

	t.Run("miss", func(t *testing.T) {
		ctx := stage(t)
		combatant(t, ctx, Slime).Evasion = 1
		rep := run(t, ctx, "strike", pressAt(650*ms))
		assert.Equal(t, "miss", rep.Outcome)
		assert.Zero(t, rep.Damage)
		assert.Equal(t, 30, combatant(t, ctx, Slime).HP)
	})

	t.Run("countered", func(t *testing.T) {
		ctx := stage(t)
		combatant(t, ctx, Slime).Inflict(battle.StatusCounter, 1)
		rep := run(t, ctx, "strike", pressAt(650*ms))
		assert.Equal(t, battle.InterruptCounter, rep.Interrupted)
		assert.Zero(t, rep.Damage)

		hero := combatant(t, ctx, Hero)
		assert.Equal(t, hero.Home, hero.Position())
	})
}

func TestCharge(t *testing.T) {
	t.Run("release in band", func(t *testing.T) {
		ctx := stage(t)
		script, err := ParseInputScript("hold@250ms, release@1150ms")
		require.NoError(t, err)

		rep := run(t, ctx, "charge", script)
		assert.Equal(t, "success", rep.Outcome)
		assert.Equal(t, skillcheck.RankGreat, rep.Rank)
		if rep.Values["critical"] == 1 {
			assert.InDelta(t, 3.0, rep.Multiplier, 1e-9)
		} else {
			assert.InDelta(t, 1.5, rep.Multiplier, 1e-9)
		}
		assert.Positive(t, rep.Damage)
	})

	t.Run("held too long", func(t *testing.T) {
		ctx := stage(t)
		rep := run(t, ctx, "charge", InputScript{{At: 250 * ms, Action: core.ActionPrimary, Kind: InputHold}})
		assert.Equal(t, "failed", rep.Outcome)
		assert.InDelta(t, 0.5, rep.Multiplier, 1e-9)
		assert.Greater(t, rep.Values["charge"], 1.0)
	})
}

func TestFlurry(t *testing.T) {
	ctx := stage(t)
	rep := run(t, ctx, "flurry", Mash(310*ms, 50*ms, 5))
	assert.Equal(t, "success", rep.Outcome)
	assert.Equal(t, skillcheck.RankGreat, rep.Rank)
	assert.Equal(t, 4.0, rep.Values["hits"])
	assert.Equal(t, 24, rep.Damage)
	assert.Equal(t, 6, combatant(t, ctx, Slime).HP)
}

func TestGuard(t *testing.T) {
	t.Run("stacked", func(t *testing.T) {
		ctx := stage(t)
		rep := run(t, ctx, "guard", Mash(160*ms, 100*ms, 12))
		assert.Equal(t, "success", rep.Outcome)
		assert.Equal(t, 4, rep.Successes)
		assert.Equal(t, 3.0, rep.Values["shield_turns"])
		assert.InDelta(t, 1.8, rep.Multiplier, 1e-9)
		assert.True(t, combatant(t, ctx, Hero).HasStatus(battle.StatusShield))
	})

	t.Run("no input", func(t *testing.T) {
		ctx := stage(t)
		rep := run(t, ctx, "guard", nil)
		assert.Equal(t, "failed", rep.Outcome)
		assert.False(t, combatant(t, ctx, Hero).HasStatus(battle.StatusShield))
	})
}

func TestProbe(t *testing.T) {
	t.Run("dodged feint is not a miss", func(t *testing.T) {
		ctx := stage(t)
		combatant(t, ctx, Slime).Evasion = 1
		rep := run(t, ctx, "probe", nil)
		assert.Equal(t, 1.0, rep.Values["probe_missed"])
		// The real hit is still dodged.
		assert.Equal(t, "miss", rep.Outcome)
	})

	t.Run("lands", func(t *testing.T) {
		ctx := stage(t)
		rep := run(t, ctx, "probe", nil)
		assert.Equal(t, "success", rep.Outcome)
		assert.Equal(t, 9, rep.Damage)
		assert.Zero(t, rep.Values["probe_missed"])
	})
}

func TestDelayedLandsNextTurn(t *testing.T) {
	ctx := stage(t)
	rec := &battle.Recorder{}
	ctx.Sink = rec

	rep := run(t, ctx, "delayed", nil)
	assert.Zero(t, rep.Damage)
	assert.Equal(t, 30, combatant(t, ctx, Slime).HP)
	assert.Equal(t, 1, ctx.Scheduler.Pending(Hero))

	assert.Equal(t, 1, ctx.NextTurn())
	assert.Equal(t, 12, combatant(t, ctx, Slime).HP)
	assert.Zero(t, ctx.Scheduler.Pending(Hero))

	var landed bool
	for _, o := range rec.Observations {
		if e, ok := o.(battle.EffectApplied); ok && e.Move == "delayed" {
			landed = e.Result.Damage == 18
		}
	}
	assert.True(t, landed)
}

func TestLungeScript(t *testing.T) {
	ctx := stage(t)
	rep := run(t, ctx, "lunge", pressAt(570*ms))
	assert.Equal(t, "success", rep.Outcome)
	assert.Equal(t, skillcheck.RankGreat, rep.Rank)
	assert.InDelta(t, 1.6, rep.Multiplier, 1e-9)
	assert.Equal(t, 14, rep.Damage)

	hero := combatant(t, ctx, Hero)
	assert.Equal(t, hero.Home, hero.Position())
}

func TestVolleyScript(t *testing.T) {
	ctx := stage(t)
	rep := run(t, ctx, "volley", Mash(210*ms, 50*ms, 6))
	assert.Equal(t, "success", rep.Outcome)
	assert.Equal(t, 8.0, rep.Values["arrows"])
	assert.Equal(t, 1.0, rep.Values["draw"])
	assert.Equal(t, 11, combatant(t, ctx, Slime).HP)
	assert.Zero(t, combatant(t, ctx, Bat).HP)
	assert.Equal(t, 37, rep.Damage)
}

func TestParleyScript(t *testing.T) {
	t.Run("coin flip", func(t *testing.T) {
		ctx := stage(t)
		rep := run(t, ctx, "parley", nil)
		assert.Contains(t, []string{"success", "failed"}, rep.Outcome)
		assert.Positive(t, rep.Damage)
	})

	t.Run("dodged", func(t *testing.T) {
		ctx := stage(t)
		combatant(t, ctx, Slime).Evasion = 1
		rep := run(t, ctx, "parley", nil)
		assert.Equal(t, "miss", rep.Outcome)
	})
}

const minimalScript = `
id: %s
power: 1
branches:
  start: [{op: hit}, {op: goto, branch: end}]
  main: [{op: end}]
  success: [{op: end}]
  failed: [{op: end}]
  miss: [{op: end}]
  end: [{op: end}]
`

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		is   error
	}{
		{"bad yaml", "id: [", nil},
		{"missing id", "power: 1", nil},
		{"missing branch", "id: x\nbranches:\n  start: [{op: end}]\n", sequence.ErrInvalidTable},
		{"unknown op", "id: x\nbranches:\n  start: [{op: fly}]\n", nil},
		{"unknown branch", "id: x\nbranches:\n  sideways: [{op: end}]\n", nil},
		{"bad formula", "id: x\nbranches:\n  start: [{op: hit, power: \"rank +\"}]\n", nil},
		{"check as side work", "id: x\nbranches:\n  start: [{op: side, step: {op: check}}]\n", nil},
		{"unknown check kind", "id: x\ncheck: {kind: dance}\nbranches:\n  start: [{op: end}]\n", nil},
		{"unerring hit on all", "id: x\nbranches:\n  start: [{op: hit, who: all, unerring: true}]\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tt.src), "test.yaml")
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, id string) {
		src := []byte(fmt.Sprintf(minimalScript, id))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), src, 0o644))
	}
	write("a.yaml", "test_a")
	write("b.yml", "test_b")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	t.Cleanup(func() {
		unregister("test_a")
		unregister("test_b")
	})

	ids, err := LoadDir(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"test_a", "test_b"}, ids)

	for _, l := range List() {
		if l.ID == "test_a" {
			assert.Equal(t, dir+":a.yaml", l.Source)
		}
	}

	ctx := stage(t)
	rep := run(t, ctx, "test_a", nil)
	assert.Equal(t, "none", rep.Outcome)
	assert.Equal(t, 4, rep.Damage)

	_, err = LoadDir(dir)
	assert.ErrorIs(t, err, ErrDuplicateMove)

	_, err = LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestParseInputScript(t *testing.T) {
	script, err := ParseInputScript("hold@100ms, release:primary@1.1s p:secondary@2s")
	require.NoError(t, err)
	require.Len(t, script, 3)
	assert.Equal(t, InputEvent{At: 100 * ms, Action: core.ActionPrimary, Kind: InputHold}, script[0])
	assert.Equal(t, InputEvent{At: 1100 * ms, Action: core.ActionPrimary, Kind: InputRelease}, script[1])
	assert.Equal(t, InputEvent{At: 2 * time.Second, Action: core.ActionSecondary, Kind: InputPress}, script[2])

	for _, bad := range []string{"press", "press@soon", "jump@1s", "press:nope@1s"} {
		_, err := ParseInputScript(bad)
		assert.Error(t, err, bad)
	}

	empty, err := ParseInputScript("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRunnerTickLimit(t *testing.T) {
	ctx := stage(t)
	rep, err := Execute(context.Background(), ctx, "strike", StageSetup(), nil, Runner{TickRate: 100, MaxTicks: 10})
	assert.ErrorIs(t, err, ErrTickLimit)
	assert.Equal(t, "strike", rep.Move)
	assert.Equal(t, "none", rep.Outcome)
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Execute(ctx, stage(t), "strike", StageSetup(), nil, Runner{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerPauseFreezesActiveTime(t *testing.T) {
	ctx := stage(t)
	r := Runner{TickRate: 100, Pauses: []PauseSpan{{At: 100 * ms, For: 200 * ms}}}
	rep, err := Execute(context.Background(), ctx, "probe", StageSetup(), nil, r)
	require.NoError(t, err)
	assert.Equal(t, 200*ms, rep.Wall-rep.Active)

	ref, err := Execute(context.Background(), stage(t), "probe", StageSetup(), nil, Runner{TickRate: 100})
	require.NoError(t, err)
	assert.Equal(t, ref.Active, rep.Active)
}

func TestPrepareScalesCheck(t *testing.T) {
	ctx := stage(t)
	m, err := Create("strike")
	require.NoError(t, err)

	seq, err := Prepare(ctx, m, Setup{User: Hero, Targets: []battle.EntityID{Slime}, CheckScale: 2})
	require.NoError(t, err)
	cfg := seq.Check().Config()
	assert.Equal(t, 150*ms, cfg.WindowStart)
	assert.Equal(t, 550*ms, cfg.WindowEnd)
	assert.False(t, seq.Started())
}
