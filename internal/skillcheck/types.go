// Package skillcheck implements the real-time input checks that run alongside
// a combat action: a small state machine that samples player input over a
// window of active time and reports one outcome per activation.
package skillcheck

import (
	"fmt"
	"math"
	"time"

	"github.com/vovakirdan/tui-battle/internal/core"
)

// Infinite disables a check's deadline.
const Infinite time.Duration = math.MaxInt64

// Kind selects how a check samples input and decides pass/fail.
type Kind int

const (
	KindTimedWindow Kind = iota // press inside a window of the running clock
	KindHoldRelease             // release while progress is inside a band
	KindRepeatCount             // reach a press count before a deadline
	KindCooldown                // every well-timed press succeeds, with a cooldown between
)

// String returns the name used in configs and scripts.
func (k Kind) String() string {
	switch k {
	case KindTimedWindow:
		return "timed_window"
	case KindHoldRelease:
		return "hold_release"
	case KindRepeatCount:
		return "repeat_count"
	case KindCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// ParseKind converts a config name to a Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range []Kind{KindTimedWindow, KindHoldRelease, KindRepeatCount, KindCooldown} {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("skillcheck: unknown kind %q", name)
}

// Outcome is the binary result of one activation.
type Outcome int

const (
	Success Outcome = iota
	Failure
)

// String returns "success" or "failure".
func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "failure"
}

// Rank grades how precisely a check was performed.
// It is reported next to the outcome and never changes control flow by itself.
type Rank int

const (
	RankNone Rank = iota
	RankOK
	RankGood
	RankGreat
)

// String returns a human-readable name for the rank.
func (r Rank) String() string {
	switch r {
	case RankOK:
		return "ok"
	case RankGood:
		return "good"
	case RankGreat:
		return "great"
	default:
		return "none"
	}
}

// RankThresholds maps a normalized timing error (0 = perfect, 1 = edge of
// the acceptable range) to a rank.
type RankThresholds struct {
	Great float64 `yaml:"great"`
	Good  float64 `yaml:"good"`
}

// DefaultThresholds returns the thresholds used when a config leaves them zero.
func DefaultThresholds() RankThresholds {
	return RankThresholds{Great: 0.2, Good: 0.5}
}

// For grades a normalized error.
func (t RankThresholds) For(err float64) Rank {
	if t.Great == 0 && t.Good == 0 {
		t = DefaultThresholds()
	}
	err = math.Abs(err)
	switch {
	case err <= t.Great:
		return RankGreat
	case err <= t.Good:
		return RankGood
	default:
		return RankOK
	}
}

// Config selects and parameterises a check. Only the fields relevant to
// Kind are read.
type Config struct {
	Kind   Kind
	Button core.Action

	// Duration is the overall deadline measured from StartInput.
	// Used by hold-release (no press), repeat-count, and cooldown checks.
	Duration time.Duration

	// Timed window, relative to StartInput. Both ends are inclusive.
	WindowStart time.Duration
	WindowEnd   time.Duration

	// Hold-release: progress reaches 1.0 after FillTime of holding.
	FillTime time.Duration
	BandLow  float64
	BandHigh float64
	MaxHold  time.Duration

	// Repeat-count target.
	Target int

	// Minimum interval between cooldown-gated successes.
	Cooldown time.Duration

	Thresholds RankThresholds
}

// Validate reports configs that can never complete sensibly.
func (c Config) Validate() error {
	switch c.Kind {
	case KindTimedWindow:
		if c.WindowEnd < c.WindowStart {
			return fmt.Errorf("skillcheck: window end %v before start %v", c.WindowEnd, c.WindowStart)
		}
	case KindHoldRelease:
		if c.FillTime == 0 {
			return fmt.Errorf("skillcheck: hold_release needs a fill time")
		}
		if c.BandHigh < c.BandLow {
			return fmt.Errorf("skillcheck: band high %v below low %v", c.BandHigh, c.BandLow)
		}
	case KindRepeatCount:
		if c.Target <= 0 {
			return fmt.Errorf("skillcheck: repeat_count needs a positive target")
		}
	case KindCooldown:
	default:
		return fmt.Errorf("skillcheck: unknown kind %d", c.Kind)
	}
	return nil
}

// Scale returns a copy of c with its timing made more lenient (factor > 1)
// or stricter (factor < 1). Windows and bands grow around their centres.
func (c Config) Scale(factor float64) Config {
	if factor <= 0 || factor == 1 {
		return c
	}

	if c.WindowEnd > c.WindowStart {
		center := (c.WindowStart + c.WindowEnd) / 2
		half := time.Duration(float64(c.WindowEnd-c.WindowStart) / 2 * factor)
		c.WindowStart = max(0, center-half)
		c.WindowEnd = center + half
	}
	if c.BandHigh > c.BandLow {
		center := (c.BandLow + c.BandHigh) / 2
		half := (c.BandHigh - c.BandLow) / 2 * factor
		c.BandLow = math.Max(0, center-half)
		c.BandHigh = center + half
	}
	if c.Duration != Infinite && c.Duration > 0 {
		c.Duration = time.Duration(float64(c.Duration) * factor)
	}
	if c.MaxHold > 0 {
		c.MaxHold = time.Duration(float64(c.MaxHold) * factor)
	}
	if c.Cooldown > 0 {
		c.Cooldown = time.Duration(float64(c.Cooldown) / factor)
	}
	return c
}
