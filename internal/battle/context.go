package battle

import (
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-battle/internal/core"
)

// Context bundles every collaborator an action needs.
// It replaces reaching into global managers from deep inside a move.
type Context struct {
	Clock     *core.Clock
	Entities  *Registry
	Events    *Events
	Dialogue  *Dialogue
	Sink      Sink
	Resolver  Resolver
	Scheduler *Scheduler
	Rand      *rand.Rand
	Logger    *log.Logger
	Turn      int
}

// NewContext creates a context with empty collaborators, a seeded RNG, and a
// StatResolver drawing from that RNG.
func NewContext(seed int64) *Context {
	rng := rand.New(rand.NewSource(seed))
	return &Context{
		Clock:     core.NewClock(),
		Entities:  NewRegistry(),
		Events:    NewEvents(),
		Dialogue:  NewDialogue(),
		Sink:      NopSink{},
		Resolver:  NewStatResolver(rng),
		Scheduler: NewScheduler(),
		Rand:      rng,
		Logger:    log.Default(),
	}
}

// Log returns the context logger, falling back to the default logger.
func (c *Context) Log() *log.Logger {
	if c == nil || c.Logger == nil {
		return log.Default()
	}
	return c.Logger
}

// Observe forwards o to the sink if one is set.
func (c *Context) Observe(o Observation) {
	if c == nil || c.Sink == nil {
		return
	}
	c.Sink.Observe(o)
}

// Now returns the active time, or zero without a clock.
func (c *Context) Now() time.Duration {
	if c == nil || c.Clock == nil {
		return 0
	}
	return c.Clock.Now()
}

// NextTurn advances the turn counter and ticks statuses. Continuations owned
// by defeated entities are dropped; the rest run if due.
func (c *Context) NextTurn() int {
	c.Turn++
	for _, e := range c.Entities.All() {
		e.TickStatuses()
		if e.Alive() {
			continue
		}
		if n := c.Scheduler.CancelEntity(e.ID); n > 0 {
			c.Log().Debug("continuations dropped", "entity", e.ID, "count", n)
		}
	}
	return c.Scheduler.RunTurn(c, c.Turn)
}
