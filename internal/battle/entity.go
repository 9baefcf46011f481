// Package battle defines the collaborators a combat action talks to while it
// runs: the entities on the stage, the damage resolver, the event and dialogue
// queues, the observation sink, and the turn continuation scheduler.
//
// Everything here is passed explicitly through a Context so the sequencing
// core can be exercised without a live battle scene.
package battle

import (
	"sort"
	"time"

	"github.com/vovakirdan/tui-battle/internal/core"
)

// EntityID identifies a combatant.
type EntityID string

// Transform exposes a mutable stage position.
type Transform interface {
	Position() core.Vec2
	SetPosition(p core.Vec2)
}

// Animator plays named animations against active time.
type Animator interface {
	PlayAnimation(name string, now, length time.Duration)
	AnimationFinished(name string, now time.Duration) bool
}

// Entity is a combatant on the battle stage.
type Entity struct {
	ID      EntityID
	Name    string
	HP      int
	MaxHP   int
	Attack  int
	Defense int
	Evasion float64 // Chance in [0, 1] to evade an incoming hit
	Home    core.Vec2

	pos      core.Vec2
	anim     string
	animEnd  time.Duration
	statuses map[Status]int // turns remaining per status
}

// NewEntity creates an entity standing at its home position.
func NewEntity(id EntityID, name string, hp int, home core.Vec2) *Entity {
	return &Entity{
		ID:       id,
		Name:     name,
		HP:       hp,
		MaxHP:    hp,
		Home:     home,
		pos:      home,
		statuses: make(map[Status]int),
	}
}

// Position returns the current stage position.
func (e *Entity) Position() core.Vec2 {
	return e.pos
}

// SetPosition moves the entity.
func (e *Entity) SetPosition(p core.Vec2) {
	e.pos = p
}

// PlayAnimation starts a named animation lasting length of active time.
func (e *Entity) PlayAnimation(name string, now, length time.Duration) {
	e.anim = name
	e.animEnd = now + length
}

// AnimationFinished reports whether the named animation is no longer playing.
// An animation that was replaced by another one counts as finished.
func (e *Entity) AnimationFinished(name string, now time.Duration) bool {
	if e.anim != name {
		return true
	}
	return now >= e.animEnd
}

// Animation returns the name of the most recently started animation.
func (e *Entity) Animation() string {
	return e.anim
}

// Alive reports whether the entity still has HP left.
func (e *Entity) Alive() bool {
	return e.HP > 0
}

// Damage subtracts HP, never going below zero. Returns the HP actually lost.
func (e *Entity) Damage(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > e.HP {
		amount = e.HP
	}
	e.HP -= amount
	return amount
}

// Inflict applies a status for the given number of turns.
func (e *Entity) Inflict(s Status, turns int) {
	if e.statuses == nil {
		e.statuses = make(map[Status]int)
	}
	if turns <= 0 {
		delete(e.statuses, s)
		return
	}
	e.statuses[s] = turns
}

// HasStatus reports whether a status is active.
func (e *Entity) HasStatus(s Status) bool {
	return e.statuses[s] > 0
}

// TickStatuses counts every status down by one turn.
func (e *Entity) TickStatuses() {
	for s, n := range e.statuses {
		if n <= 1 {
			delete(e.statuses, s)
			continue
		}
		e.statuses[s] = n - 1
	}
}

// Registry holds the entities taking part in a battle.
type Registry struct {
	entities map[EntityID]*Entity
}

// NewRegistry creates an empty entity registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[EntityID]*Entity)}
}

// Add registers an entity, replacing any previous entity with the same ID.
func (r *Registry) Add(e *Entity) {
	r.entities[e.ID] = e
}

// Get returns an entity by ID.
func (r *Registry) Get(id EntityID) (*Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// All returns every entity, sorted by ID.
func (r *Registry) All() []*Entity {
	result := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}
