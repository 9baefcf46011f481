package core

import "time"

// Clock tracks the two notions of time the battle engine cares about:
// the elapsed delta of the current tick and the game-active time accumulator.
//
// Active time only moves while the clock is running, so pausing the battle
// freezes every deadline that was computed against it.
type Clock struct {
	delta  time.Duration
	active time.Duration
	ticks  uint64
	paused bool
}

// NewClock creates a running clock at active time zero.
func NewClock() *Clock {
	return &Clock{}
}

// Advance moves the clock forward by one tick of the given length.
// A paused clock counts the tick but reports a zero delta.
func (c *Clock) Advance(delta time.Duration) {
	c.ticks++
	if c.paused || delta < 0 {
		c.delta = 0
		return
	}
	c.delta = delta
	c.active += delta
}

// Now returns the accumulated active time.
func (c *Clock) Now() time.Duration {
	return c.active
}

// Delta returns the active time added by the last Advance.
func (c *Clock) Delta() time.Duration {
	return c.delta
}

// Ticks returns how many times Advance has been called.
func (c *Clock) Ticks() uint64 {
	return c.ticks
}

// Pause stops active time from accumulating.
func (c *Clock) Pause() {
	c.paused = true
}

// Resume lets active time accumulate again.
func (c *Clock) Resume() {
	c.paused = false
}

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool {
	return c.paused
}

// AbsDuration returns d with its sign removed and whether it was negative.
func AbsDuration(d time.Duration) (time.Duration, bool) {
	if d < 0 {
		return -d, true
	}
	return d, false
}
