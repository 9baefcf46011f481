package skillcheck

import (
	"time"

	"github.com/vovakirdan/tui-battle/internal/core"
)

func (c *Check) updateTimedWindow(now time.Duration, in core.InputFrame) {
	elapsed := now - c.startedAt
	if c.cfg.WindowEnd > 0 {
		c.progress = core.ClampF(float64(elapsed)/float64(c.cfg.WindowEnd), 0, 1)
	}

	if in.Has(c.cfg.Button) && !c.lockedOut {
		if elapsed >= c.cfg.WindowStart && elapsed <= c.cfg.WindowEnd {
			center := (c.cfg.WindowStart + c.cfg.WindowEnd) / 2
			half := (c.cfg.WindowEnd - c.cfg.WindowStart) / 2
			c.finish(Success, c.rankByError(elapsed-center, half))
			return
		}
		if elapsed < c.cfg.WindowStart {
			// Early press: the window is forfeit, failure is reported at close.
			c.lockedOut = true
		}
	}

	if elapsed > c.cfg.WindowEnd {
		c.finish(Failure, RankNone)
	}
}

func (c *Check) updateHoldRelease(now time.Duration, in core.InputFrame) {
	btn := c.cfg.Button

	if !c.holding {
		if in.Has(btn) || in.IsHeld(btn) {
			c.holding = true
			c.holdStart = now
		} else {
			if c.cfg.Duration != Infinite && c.cfg.Duration > 0 && now-c.startedAt >= c.cfg.Duration {
				c.finish(Failure, RankNone)
			}
			return
		}
	}

	held := now - c.holdStart
	c.progress = float64(held) / float64(c.cfg.FillTime)

	if in.WasReleased(btn) || !in.IsHeld(btn) {
		if c.progress >= c.cfg.BandLow && c.progress <= c.cfg.BandHigh {
			center := (c.cfg.BandLow + c.cfg.BandHigh) / 2
			half := (c.cfg.BandHigh - c.cfg.BandLow) / 2
			c.finish(Success, c.rankByErrorF(c.progress-center, half))
		} else {
			c.finish(Failure, RankNone)
		}
		return
	}

	c.SendResponse(c.progress)

	if c.cfg.MaxHold > 0 && held > c.cfg.MaxHold {
		c.finish(Failure, RankNone)
	}
}

func (c *Check) updateRepeatCount(now time.Duration, in core.InputFrame) {
	elapsed := now - c.startedAt
	infinite := c.cfg.Duration == Infinite

	// Presses landing after the deadline never count.
	if !infinite && elapsed > c.cfg.Duration {
		c.finish(Failure, RankNone)
		return
	}

	if in.Has(c.cfg.Button) {
		c.count++
		c.progress = float64(c.count) / float64(c.cfg.Target)
		c.SendResponse(c.progress)
		if !c.accepting {
			return
		}
		if c.count >= c.cfg.Target {
			rank := RankOK
			if !infinite && c.cfg.Duration > 0 {
				// Finishing early is better: error is the used fraction of the deadline.
				rank = c.thresholds().For(float64(elapsed) / float64(c.cfg.Duration))
			}
			c.finish(Success, rank)
			return
		}
	}

	// The deadline is inclusive: the press on the deadline tick was counted above.
	if !infinite && elapsed >= c.cfg.Duration {
		c.finish(Failure, RankNone)
	}
}

func (c *Check) updateCooldown(now time.Duration, in core.InputFrame) {
	if c.cfg.Cooldown > 0 {
		wait := c.cooldownExpiry - now
		c.progress = 1 - core.ClampF(float64(wait)/float64(c.cfg.Cooldown), 0, 1)
	} else {
		c.progress = 1
	}

	late := c.cfg.Duration != Infinite && now-c.sessionAt > c.cfg.Duration
	if in.Has(c.cfg.Button) && !late && now >= c.cooldownExpiry {
		rank := RankOK
		if c.cfg.Cooldown > 0 {
			rank = c.rankByError(now-c.cooldownExpiry, c.cfg.Cooldown)
		}
		c.successes++
		c.cooldownExpiry = now + c.cfg.Cooldown
		c.finish(Success, rank)
		return
	}

	if c.pastDeadline(now) {
		if c.successes == 0 {
			c.finish(Failure, RankNone)
			return
		}
		c.EndInput()
	}
}

func (c *Check) thresholds() RankThresholds {
	return c.cfg.Thresholds
}

func (c *Check) rankByError(off, half time.Duration) Rank {
	if half <= 0 {
		return RankGreat
	}
	return c.thresholds().For(float64(off) / float64(half))
}

func (c *Check) rankByErrorF(off, half float64) Rank {
	if half <= 0 {
		return RankGreat
	}
	return c.thresholds().For(off / half)
}
