package sequence

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTable is returned when a table misses a branch entry.
var ErrInvalidTable = errors.New("sequence: invalid transition table")

// Transition is the code run when a sequence reaches a key.
type Transition func(s *Sequence)

// Table maps every (Branch, Step) key to a transition.
type Table struct {
	entries map[Branch][]Transition
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[Branch][]Transition)}
}

// On appends transitions to branch b. The first call for a branch defines
// step 0.
func (t *Table) On(b Branch, fns ...Transition) *Table {
	t.entries[b] = append(t.entries[b], fns...)
	return t
}

// Lookup returns the transition for k.
func (t *Table) Lookup(k Key) (Transition, bool) {
	list := t.entries[k.Branch]
	if k.Step < 0 || k.Step >= len(list) || list[k.Step] == nil {
		return nil, false
	}
	return list[k.Step], true
}

// Len returns how many steps branch b defines.
func (t *Table) Len(b Branch) int {
	return len(t.entries[b])
}

// Validate checks that every branch has a step-0 entry and that no entry is
// nil.
func (t *Table) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil table", ErrInvalidTable)
	}
	var problems []string
	for _, b := range Branches {
		list := t.entries[b]
		if len(list) == 0 {
			problems = append(problems, fmt.Sprintf("branch %s has no entries", b))
			continue
		}
		for i, fn := range list {
			if fn == nil {
				problems = append(problems, fmt.Sprintf("%s is nil", Key{b, i}))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTable, strings.Join(problems, "; "))
	}
	return nil
}
