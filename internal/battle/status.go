package battle

// Status is a lingering effect on an entity.
type Status int

const (
	StatusNone Status = iota
	StatusStun        // Interrupts the afflicted entity's own actions
	StatusCounter     // Interrupts actions that strike the afflicted entity
	StatusShield      // Halves incoming damage
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusStun:
		return "stun"
	case StatusCounter:
		return "counter"
	case StatusShield:
		return "shield"
	default:
		return "none"
	}
}

// Interruption describes why an in-flight action was cut short.
type Interruption int

const (
	InterruptNone Interruption = iota
	InterruptStun
	InterruptCounter
)

// String returns a human-readable name for the interruption.
func (i Interruption) String() string {
	switch i {
	case InterruptStun:
		return "stun"
	case InterruptCounter:
		return "counter"
	default:
		return "none"
	}
}
