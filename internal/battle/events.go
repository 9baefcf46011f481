package battle

import "time"

// EventID identifies a posted event or dialogue line.
type EventID int

type event struct {
	name   string
	end    time.Duration
	manual bool // finishes only through Complete
	done   bool
}

// Events is a queue of named stage events (camera pans, effect bursts, etc.)
// whose completion timed steps can wait on.
type Events struct {
	next   EventID
	events map[EventID]*event
}

// NewEvents creates an empty event queue.
func NewEvents() *Events {
	return &Events{events: make(map[EventID]*event)}
}

// Post adds an event that finishes once active time reaches now+length.
func (q *Events) Post(name string, now, length time.Duration) EventID {
	q.next++
	q.events[q.next] = &event{name: name, end: now + length}
	return q.next
}

// PostManual adds an event that only finishes when Complete is called.
func (q *Events) PostManual(name string) EventID {
	q.next++
	q.events[q.next] = &event{name: name, manual: true}
	return q.next
}

// Complete marks an event finished.
func (q *Events) Complete(id EventID) {
	if ev, ok := q.events[id]; ok {
		ev.done = true
	}
}

// Finished reports whether the event is over. Unknown IDs count as finished.
func (q *Events) Finished(id EventID, now time.Duration) bool {
	ev, ok := q.events[id]
	if !ok || ev.done {
		return true
	}
	return !ev.manual && now >= ev.end
}

// Name returns the event name, or "" for unknown IDs.
func (q *Events) Name(id EventID) string {
	if ev, ok := q.events[id]; ok {
		return ev.name
	}
	return ""
}

// Line is a piece of battle dialogue.
type Line struct {
	Speaker string
	Text    string
	end     time.Duration
	skipped bool
}

// Dialogue holds the lines shown during an action.
type Dialogue struct {
	lines []*Line
}

// NewDialogue creates an empty dialogue log.
func NewDialogue() *Dialogue {
	return &Dialogue{}
}

// Say shows a line for length of active time and returns its ID.
func (d *Dialogue) Say(speaker, text string, now, length time.Duration) EventID {
	d.lines = append(d.lines, &Line{Speaker: speaker, Text: text, end: now + length})
	return EventID(len(d.lines))
}

// Skip finishes every line that is still showing.
func (d *Dialogue) Skip() {
	for _, l := range d.lines {
		l.skipped = true
	}
}

// Finished reports whether the line is done. Unknown IDs count as finished.
func (d *Dialogue) Finished(id EventID, now time.Duration) bool {
	i := int(id) - 1
	if i < 0 || i >= len(d.lines) {
		return true
	}
	l := d.lines[i]
	return l.skipped || now >= l.end
}

// Current returns the most recent line still showing, if any.
func (d *Dialogue) Current(now time.Duration) (Line, bool) {
	for i := len(d.lines) - 1; i >= 0; i-- {
		l := d.lines[i]
		if !l.skipped && now < l.end {
			return *l, true
		}
	}
	return Line{}, false
}
