// Package sequence runs one combat action as a branching series of timed
// steps.
//
// A Sequence sits at a (Branch, Step) key. Each tick it advances the skill
// check, the side work and the active step, and once the active step is done
// it looks the key up in its Table and runs that transition. Transitions
// install the next step with Then, move along with Advance, or jump with
// ChangeBranch.
package sequence

import (
	"fmt"
	"strings"
)

// Branch is one of the fixed sub-flows of an action.
type Branch int

const (
	BranchStart Branch = iota
	BranchMain
	BranchSuccess
	BranchFailed
	BranchMiss
	BranchEnd
)

// Branches lists every branch in declaration order.
var Branches = []Branch{BranchStart, BranchMain, BranchSuccess, BranchFailed, BranchMiss, BranchEnd}

func (b Branch) String() string {
	switch b {
	case BranchStart:
		return "start"
	case BranchMain:
		return "main"
	case BranchSuccess:
		return "success"
	case BranchFailed:
		return "failed"
	case BranchMiss:
		return "miss"
	case BranchEnd:
		return "end"
	default:
		return fmt.Sprintf("branch(%d)", int(b))
	}
}

// ParseBranch maps a branch name back to its value.
func ParseBranch(s string) (Branch, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, b := range Branches {
		if b.String() == name {
			return b, nil
		}
	}
	return BranchStart, fmt.Errorf("sequence: unknown branch %q", s)
}

// Key is the position of a sequence inside its table.
type Key struct {
	Branch Branch
	Step   int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Branch, k.Step)
}
