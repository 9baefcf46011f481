package battle

import "sort"

// ContinuationID identifies a scheduled continuation.
type ContinuationID int

// Continuation runs part of an action on a later turn.
type Continuation func(ctx *Context)

type scheduled struct {
	id     ContinuationID
	entity EntityID
	turn   int
	fn     Continuation
}

// Scheduler stages the second half of an action on a future turn.
// Each continuation is keyed by (entity, turn) and runs at most once.
type Scheduler struct {
	next    ContinuationID
	pending map[ContinuationID]scheduled
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[ContinuationID]scheduled)}
}

// Schedule registers fn to run when turn starts for entity.
func (s *Scheduler) Schedule(entity EntityID, turn int, fn Continuation) ContinuationID {
	s.next++
	s.pending[s.next] = scheduled{id: s.next, entity: entity, turn: turn, fn: fn}
	return s.next
}

// Cancel drops a continuation. Returns false if it already ran or never existed.
func (s *Scheduler) Cancel(id ContinuationID) bool {
	if _, ok := s.pending[id]; !ok {
		return false
	}
	delete(s.pending, id)
	return true
}

// CancelEntity drops every continuation owned by entity (e.g. it was defeated).
func (s *Scheduler) CancelEntity(entity EntityID) int {
	n := 0
	for id, c := range s.pending {
		if c.entity == entity {
			delete(s.pending, id)
			n++
		}
	}
	return n
}

// Pending returns how many continuations entity still has queued.
func (s *Scheduler) Pending(entity EntityID) int {
	n := 0
	for _, c := range s.pending {
		if c.entity == entity {
			n++
		}
	}
	return n
}

// RunTurn runs every continuation due on or before turn in scheduling order
// and returns how many ran.
func (s *Scheduler) RunTurn(ctx *Context, turn int) int {
	var due []scheduled
	for _, c := range s.pending {
		if c.turn <= turn {
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].id < due[j].id
	})

	for _, c := range due {
		// Removed before running so a continuation can never fire twice,
		// even if it schedules another one for the same key.
		delete(s.pending, c.id)
		c.fn(ctx)
	}
	return len(due)
}
