package sequence

import (
	"fmt"
	"strings"
	"time"
)

// InputPolicy decides what happens to a skill check that is still accepting
// input when the sequence changes branch.
type InputPolicy int

const (
	// PolicyExplicit leaves the check running and logs a warning. Transitions
	// are expected to end input themselves.
	PolicyExplicit InputPolicy = iota
	// PolicyEndOnBranchChange ends input on every branch change.
	PolicyEndOnBranchChange
	// PolicyGrace keeps accepting for a grace window of active time, then
	// ends input.
	PolicyGrace
)

// DefaultGraceWindow is used by PolicyGrace when no window is configured.
const DefaultGraceWindow = 150 * time.Millisecond

func (p InputPolicy) String() string {
	switch p {
	case PolicyExplicit:
		return "explicit"
	case PolicyEndOnBranchChange:
		return "end_on_branch_change"
	case PolicyGrace:
		return "grace"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a policy name to its value. The empty string is
// PolicyExplicit.
func ParsePolicy(s string) (InputPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "explicit":
		return PolicyExplicit, nil
	case "end_on_branch_change", "end":
		return PolicyEndOnBranchChange, nil
	case "grace":
		return PolicyGrace, nil
	default:
		return PolicyExplicit, fmt.Errorf("sequence: unknown input policy %q", s)
	}
}

// UnmarshalText lets policies be read from YAML and environment variables.
func (p *InputPolicy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText returns the policy name.
func (p InputPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
