package moves

import (
	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
)

// Default combatant IDs placed by NewStage.
const (
	Hero  battle.EntityID = "hero"
	Slime battle.EntityID = "slime"
	Bat   battle.EntityID = "bat"
)

// NewStage returns a context with a hero facing two foes.
func NewStage(seed int64) *battle.Context {
	ctx := battle.NewContext(seed)

	hero := battle.NewEntity(Hero, "Hero", 40, core.V(6, 8))
	hero.Attack = 4
	hero.Defense = 2

	slime := battle.NewEntity(Slime, "Slime", 30, core.V(40, 8))
	slime.Attack = 2
	slime.Defense = 1
	slime.Evasion = 0.1

	bat := battle.NewEntity(Bat, "Bat", 18, core.V(48, 4))
	bat.Attack = 3
	bat.Evasion = 0.3

	ctx.Entities.Add(hero)
	ctx.Entities.Add(slime)
	ctx.Entities.Add(bat)
	return ctx
}

// StageSetup has the hero act on the slime, with the bat as second target.
func StageSetup() Setup {
	return Setup{User: Hero, Targets: []battle.EntityID{Slime, Bat}}
}
