package core

import "fmt"

// Easing shapes interpolation progress for movement steps.
type Easing int

const (
	EaseLinear Easing = iota
	EaseInQuad
	EaseOutQuad
	EaseInOutQuad
)

// String returns the name used in move scripts.
func (e Easing) String() string {
	switch e {
	case EaseLinear:
		return "linear"
	case EaseInQuad:
		return "in_quad"
	case EaseOutQuad:
		return "out_quad"
	case EaseInOutQuad:
		return "in_out_quad"
	default:
		return "unknown"
	}
}

// Apply maps linear progress t in [0, 1] to eased progress.
func (e Easing) Apply(t float64) float64 {
	t = ClampF(t, 0, 1)
	switch e {
	case EaseInQuad:
		return t * t
	case EaseOutQuad:
		return t * (2 - t)
	case EaseInOutQuad:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	default:
		return t
	}
}

// ParseEasing converts a script name to an Easing. Empty means linear.
func ParseEasing(name string) (Easing, error) {
	switch name {
	case "", "linear":
		return EaseLinear, nil
	case "in_quad":
		return EaseInQuad, nil
	case "out_quad":
		return EaseOutQuad, nil
	case "in_out_quad":
		return EaseInOutQuad, nil
	default:
		return EaseLinear, fmt.Errorf("core: unknown easing %q", name)
	}
}
