package battle

import "github.com/charmbracelet/log"

// Observation is a read-only notification pushed to a Sink.
// Sinks only watch; nothing they do feeds back into the running action.
type Observation interface {
	observation()
}

// BranchChanged is sent when an action switches branch.
type BranchChanged struct {
	Move string
	From string
	To   string
	Tick uint64
}

func (BranchChanged) observation() {}

// StepInstalled is sent when a new active step starts driving the main line.
type StepInstalled struct {
	Move   string
	Branch string
	Step   int
	Kind   string
}

func (StepInstalled) observation() {}

// SideWorkChanged is sent when a side step starts or finishes.
type SideWorkChanged struct {
	Move     string
	Kind     string
	Finished bool
	Pending  int // Side steps still running after this change
}

func (SideWorkChanged) observation() {}

// CheckStarted is sent when a skill check starts accepting input.
type CheckStarted struct {
	Kind string
}

func (CheckStarted) observation() {}

// CheckResponse carries streamed skill-check data.
type CheckResponse struct {
	Kind  string
	Value float64
}

func (CheckResponse) observation() {}

// CheckCompleted is sent once per activation when a check reports its outcome.
type CheckCompleted struct {
	Kind    string
	Success bool
	Rank    string
}

func (CheckCompleted) observation() {}

// EffectApplied is sent after the resolver handled an attempt.
type EffectApplied struct {
	Move   string
	Target EntityID
	Result Result
}

func (EffectApplied) observation() {}

// Interrupted is sent when an action receives an interruption.
type Interrupted struct {
	Move string
	Kind Interruption
}

func (Interrupted) observation() {}

// ActionEnded is sent when an action terminates.
type ActionEnded struct {
	Move   string
	Branch string
	Tick   uint64
}

func (ActionEnded) observation() {}

// Sink receives observations from running actions and skill checks.
type Sink interface {
	Observe(o Observation)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(o Observation)

// Observe calls f(o).
func (f SinkFunc) Observe(o Observation) {
	f(o)
}

// NopSink discards every observation.
type NopSink struct{}

// Observe does nothing.
func (NopSink) Observe(Observation) {}

// Recorder keeps every observation in order.
type Recorder struct {
	Observations []Observation
}

// Observe appends o.
func (r *Recorder) Observe(o Observation) {
	r.Observations = append(r.Observations, o)
}

// Branches returns the destination of every recorded branch change.
func (r *Recorder) Branches() []string {
	var result []string
	for _, o := range r.Observations {
		if bc, ok := o.(BranchChanged); ok {
			result = append(result, bc.To)
		}
	}
	return result
}

// LogSink writes observations to a structured logger at debug level.
type LogSink struct {
	Logger *log.Logger
}

// Observe logs o.
func (s LogSink) Observe(o Observation) {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	switch o := o.(type) {
	case BranchChanged:
		logger.Debug("branch changed", "move", o.Move, "from", o.From, "to", o.To, "tick", o.Tick)
	case StepInstalled:
		logger.Debug("step installed", "move", o.Move, "branch", o.Branch, "step", o.Step, "kind", o.Kind)
	case SideWorkChanged:
		logger.Debug("side work", "move", o.Move, "kind", o.Kind, "finished", o.Finished, "pending", o.Pending)
	case CheckStarted:
		logger.Debug("check started", "kind", o.Kind)
	case CheckResponse:
		logger.Debug("check response", "kind", o.Kind, "value", o.Value)
	case CheckCompleted:
		logger.Debug("check completed", "kind", o.Kind, "success", o.Success, "rank", o.Rank)
	case EffectApplied:
		logger.Debug("effect applied", "move", o.Move, "target", o.Target, "result", o.Result.Kind, "damage", o.Result.Damage)
	case Interrupted:
		logger.Debug("interrupted", "move", o.Move, "kind", o.Kind)
	case ActionEnded:
		logger.Debug("action ended", "move", o.Move, "branch", o.Branch, "tick", o.Tick)
	}
}

// MultiSink fans observations out to several sinks in order.
type MultiSink []Sink

// Observe forwards o to every sink.
func (m MultiSink) Observe(o Observation) {
	for _, s := range m {
		if s != nil {
			s.Observe(o)
		}
	}
}
