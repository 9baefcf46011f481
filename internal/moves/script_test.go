package moves

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coerced = "negative step duration coerced"

func runScript(t *testing.T, src string, script InputScript) (Report, *bytes.Buffer) {
	t.Helper()
	ctx := stage(t)
	buf := &bytes.Buffer{}
	ctx.Logger = log.New(buf)

	m, err := ParseScript([]byte(src), "test.yaml")
	require.NoError(t, err)
	seq, err := Prepare(ctx, m, StageSetup())
	require.NoError(t, err)
	rep, err := Runner{TickRate: 100, MaxTicks: 300}.Run(context.Background(), ctx, seq, script)
	require.NoError(t, err)
	return rep, buf
}

func TestScriptNegativeCheckLimit(t *testing.T) {
	rep, buf := runScript(t, `
id: slow_mash
power: 1
check: {kind: repeat_count, target: 3, duration: infinite}
branches:
  start: [{op: check, limit: -500ms}, {op: goto, branch: end}]
  main: [{op: end}]
  success: [{op: end}]
  failed: [{op: end}]
  miss: [{op: end}]
  end: [{op: end}]
`, nil)
	assert.Equal(t, "failed", rep.Outcome)
	assert.Equal(t, 500*ms, rep.Active)
	assert.Contains(t, buf.String(), coerced)
}

func TestScriptOmittedCheckLimitWaitsOnCheck(t *testing.T) {
	rep, _ := runScript(t, `
id: patient_mash
power: 1
check: {kind: repeat_count, target: 2, duration: 400ms}
branches:
  start: [{op: check}, {op: goto, branch: end}]
  main: [{op: end}]
  success: [{op: end}]
  failed: [{op: end}]
  miss: [{op: end}]
  end: [{op: end}]
`, Mash(100*ms, 50*ms, 2))
	assert.Equal(t, "success", rep.Outcome)
}

func TestScriptNegativeEventAndDialogueLengths(t *testing.T) {
	rep, buf := runScript(t, `
id: backwards
power: 1
branches:
  start:
    - {op: side, step: {op: event, name: sparks, duration: -200ms}}
    - {op: wait_side}
    - {op: event, name: boom, duration: -300ms}
    - {op: dialogue, speaker: Hero, text: hi, duration: -300ms}
    - {op: goto, branch: end}
  main: [{op: end}]
  success: [{op: end}]
  failed: [{op: end}]
  miss: [{op: end}]
  end: [{op: end}]
`, nil)
	assert.Equal(t, 800*ms, rep.Active)
	assert.Equal(t, 3, strings.Count(buf.String(), coerced))
}

func TestScriptUnerringHit(t *testing.T) {
	const src = `
id: sure_shot
power: 10
branches:
  start: [{op: hit, unerring: %t}, {op: goto, branch: end}]
  main: [{op: end}]
  success: [{op: end}]
  failed: [{op: end}]
  miss: [{op: end}]
  end: [{op: end}]
`
	dodging := func(t *testing.T, unerring bool) (Report, int) {
		ctx := stage(t)
		combatant(t, ctx, Slime).Evasion = 1
		m, err := ParseScript([]byte(fmt.Sprintf(src, unerring)), "test.yaml")
		require.NoError(t, err)
		seq, err := Prepare(ctx, m, StageSetup())
		require.NoError(t, err)
		rep, err := Runner{TickRate: 100}.Run(context.Background(), ctx, seq, nil)
		require.NoError(t, err)
		return rep, combatant(t, ctx, Slime).HP
	}

	t.Run("lands", func(t *testing.T) {
		rep, hp := dodging(t, true)
		assert.NotEqual(t, "miss", rep.Outcome)
		assert.Positive(t, rep.Damage)
		assert.Less(t, hp, 30)
	})

	t.Run("dodged", func(t *testing.T) {
		rep, hp := dodging(t, false)
		assert.Equal(t, "miss", rep.Outcome)
		assert.Equal(t, 30, hp)
	})
}

func TestDelayedDroppedWhenUserFalls(t *testing.T) {
	ctx := stage(t)
	run(t, ctx, "delayed", nil)
	require.Equal(t, 1, ctx.Scheduler.Pending(Hero))

	combatant(t, ctx, Hero).HP = 0
	assert.Zero(t, ctx.NextTurn())
	assert.Equal(t, 30, combatant(t, ctx, Slime).HP)
	assert.Zero(t, ctx.Scheduler.Pending(Hero))
}
