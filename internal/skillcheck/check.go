package skillcheck

import (
	"time"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
)

// Owner receives the results of a check. It is whatever started the action,
// usually a running sequence.
type Owner interface {
	OnCommandSuccess()
	OnCommandFailed()
	OnCommandResponse(value float64)
}

// Check is an input skill check with two states: idle and accepting input.
type Check struct {
	cfg   Config
	owner Owner
	ctx   *battle.Context

	accepting   bool
	activations int
	startedAt   time.Duration // start of the current activation
	sessionAt   time.Duration // start of the StartInput that began the session
	now         time.Duration

	completed bool // the current activation already reported
	outcome   Outcome
	rank      Rank
	reported  bool // any activation ever reported

	progress float64

	// callback bookkeeping
	inCallback   bool
	endRequested bool

	// kind-specific state
	lockedOut      bool
	holding        bool
	holdStart      time.Duration
	count          int
	cooldownExpiry time.Duration
	successes      int
}

// New creates an idle check. Negative durations in cfg are made positive
// with a warning.
func New(cfg Config, owner Owner, ctx *battle.Context) *Check {
	c := &Check{owner: owner, ctx: ctx}
	c.cfg = c.normalize(cfg)
	if c.cfg.Button == core.ActionNone {
		c.cfg.Button = core.ActionPrimary
	}
	return c
}

func (c *Check) normalize(cfg Config) Config {
	fix := func(name string, d *time.Duration) {
		if abs, neg := core.AbsDuration(*d); neg {
			c.ctx.Log().Warn("negative check duration coerced", "field", name, "value", *d, "kind", cfg.Kind)
			*d = abs
		}
	}
	fix("duration", &cfg.Duration)
	fix("window_start", &cfg.WindowStart)
	fix("window_end", &cfg.WindowEnd)
	fix("fill_time", &cfg.FillTime)
	fix("max_hold", &cfg.MaxHold)
	fix("cooldown", &cfg.Cooldown)
	return cfg
}

// StartInput begins an activation at active time now. Calling it while
// already accepting re-initializes the timers instead of stacking.
func (c *Check) StartInput(now time.Duration) {
	c.sessionAt = now
	c.cooldownExpiry = now
	c.successes = 0
	c.arm(now)
	c.ctx.Observe(battle.CheckStarted{Kind: c.cfg.Kind.String()})
}

// arm opens a fresh activation while keeping session-wide state.
func (c *Check) arm(now time.Duration) {
	c.accepting = true
	c.activations++
	c.startedAt = now
	c.now = now
	c.completed = false
	c.rank = RankNone
	c.progress = 0
	c.lockedOut = false
	c.holding = false
	c.count = 0
	c.endRequested = false
}

// EndInput stops accepting input. Safe to call on an idle check.
func (c *Check) EndInput() {
	if c.inCallback {
		c.endRequested = true
	}
	if !c.accepting {
		return
	}
	c.accepting = false
	c.holding = false
}

// Completing reports whether the check is inside its owner callback.
func (c *Check) Completing() bool {
	return c.inCallback
}

// AcceptingInput reports whether the check polls input on Update.
func (c *Check) AcceptingInput() bool {
	return c.accepting
}

// Update samples input for one tick. Idle checks ignore input.
func (c *Check) Update(now time.Duration, in core.InputFrame) {
	if !c.accepting {
		return
	}
	c.now = now
	switch c.cfg.Kind {
	case KindTimedWindow:
		c.updateTimedWindow(now, in)
	case KindHoldRelease:
		c.updateHoldRelease(now, in)
	case KindRepeatCount:
		c.updateRepeatCount(now, in)
	case KindCooldown:
		c.updateCooldown(now, in)
	}
}

// Complete reports outcome to the owner and ends input. It is the single
// exit point of an activation; calls after the first are ignored.
// Returns whether the outcome was delivered.
func (c *Check) Complete(outcome Outcome) bool {
	rank := RankNone
	if outcome == Success {
		rank = RankOK
	}
	return c.finish(outcome, rank)
}

func (c *Check) finish(outcome Outcome, rank Rank) bool {
	if !c.accepting || c.completed {
		c.ctx.Log().Warn("skill check completion ignored", "kind", c.cfg.Kind, "outcome", outcome,
			"accepting", c.accepting, "completed", c.completed)
		return false
	}
	c.completed = true
	c.reported = true
	c.outcome = outcome
	c.rank = rank
	activation := c.activations

	c.ctx.Observe(battle.CheckCompleted{
		Kind:    c.cfg.Kind.String(),
		Success: outcome == Success,
		Rank:    rank.String(),
	})

	c.inCallback = true
	c.endRequested = false
	if c.owner != nil {
		if outcome == Success {
			c.owner.OnCommandSuccess()
		} else {
			c.owner.OnCommandFailed()
		}
	}
	c.inCallback = false

	// The owner restarted the check from its callback; that activation stands.
	if c.activations != activation {
		return true
	}
	stop := c.endRequested
	c.EndInput()

	if c.cfg.Kind == KindCooldown && outcome == Success && !stop && !c.pastDeadline(c.now) {
		c.arm(c.now)
	}
	return true
}

// SendResponse streams an intermediate measurement to the owner without
// ending input.
func (c *Check) SendResponse(value float64) {
	if !c.accepting {
		return
	}
	c.ctx.Observe(battle.CheckResponse{Kind: c.cfg.Kind.String(), Value: value})
	if c.owner != nil {
		c.owner.OnCommandResponse(value)
	}
}

// Config returns the effective configuration.
func (c *Check) Config() Config {
	return c.cfg
}

// Kind returns the check kind.
func (c *Check) Kind() Kind {
	return c.cfg.Kind
}

// Progress returns a [0, 1]-ish value for a renderer: window clock, hold
// fill, press ratio, or cooldown readiness depending on the kind.
func (c *Check) Progress() float64 {
	return c.progress
}

// Rank returns the rank of the most recent completed activation.
func (c *Check) Rank() Rank {
	return c.rank
}

// Outcome returns the most recent reported outcome, if any.
func (c *Check) Outcome() (Outcome, bool) {
	return c.outcome, c.reported
}

// Activations returns how many activations have been opened.
func (c *Check) Activations() int {
	return c.activations
}

// Count returns the repeat-count presses of the current activation.
func (c *Check) Count() int {
	return c.count
}

// Successes returns the cooldown-gated successes since StartInput.
func (c *Check) Successes() int {
	return c.successes
}

// CooldownExpiry returns the earliest active time the next cooldown press counts.
func (c *Check) CooldownExpiry() time.Duration {
	return c.cooldownExpiry
}

// Elapsed returns the active time since the current activation started.
func (c *Check) Elapsed() time.Duration {
	return c.now - c.startedAt
}

func (c *Check) pastDeadline(now time.Duration) bool {
	if c.cfg.Duration == Infinite {
		return false
	}
	return now-c.sessionAt >= c.cfg.Duration
}
