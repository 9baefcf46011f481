package battle

import (
	"math"
	"math/rand"
)

// ResultKind is the coarse outcome of an attempt to apply an effect.
type ResultKind int

const (
	ResultHit ResultKind = iota
	ResultMiss
	ResultInterrupted
)

// String returns a human-readable name for the result kind.
func (k ResultKind) String() string {
	switch k {
	case ResultHit:
		return "hit"
	case ResultMiss:
		return "miss"
	case ResultInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Attempt describes one effect application.
type Attempt struct {
	Attacker   *Entity
	Target     *Entity
	Power      float64 // Base magnitude; zero for probe hits
	Multiplier float64 // Skill-check multiplier; zero is treated as 1
	Unerring   bool    // Skips the evasion roll
}

// Result is returned by a Resolver.
type Result struct {
	Kind         ResultKind
	Damage       int
	Interruption Interruption
	Target       EntityID
}

// Resolver applies effects to targets.
type Resolver interface {
	Resolve(a Attempt) Result
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(a Attempt) Result

// Resolve calls f(a).
func (f ResolverFunc) Resolve(a Attempt) Result {
	return f(a)
}

// StatResolver resolves attempts from entity stats and a seeded RNG.
type StatResolver struct {
	rng *rand.Rand
}

// NewStatResolver creates a resolver drawing evasion rolls from rng.
func NewStatResolver(rng *rand.Rand) *StatResolver {
	return &StatResolver{rng: rng}
}

// Resolve applies the attempt. Interruptions are checked before evasion so
// a stunned attacker never rolls.
func (r *StatResolver) Resolve(a Attempt) Result {
	if a.Target == nil {
		return Result{Kind: ResultMiss}
	}
	res := Result{Target: a.Target.ID}

	if a.Attacker != nil && a.Attacker.HasStatus(StatusStun) {
		res.Kind = ResultInterrupted
		res.Interruption = InterruptStun
		return res
	}
	if a.Target.HasStatus(StatusCounter) {
		res.Kind = ResultInterrupted
		res.Interruption = InterruptCounter
		return res
	}
	if !a.Unerring && a.Target.Evasion > 0 && r.rng.Float64() < a.Target.Evasion {
		res.Kind = ResultMiss
		return res
	}

	mult := a.Multiplier
	if mult == 0 {
		mult = 1
	}
	attack := 0
	if a.Attacker != nil {
		attack = a.Attacker.Attack
	}

	damage := 0
	if a.Power > 0 {
		raw := int(math.Round(a.Power*mult)) + attack - a.Target.Defense
		damage = max(1, raw)
		if a.Target.HasStatus(StatusShield) {
			damage = max(1, damage/2)
		}
	}

	res.Kind = ResultHit
	res.Damage = a.Target.Damage(damage)
	return res
}
