package moves

import (
	"time"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
)

// ResultData is the summary of a finished action handed to a ResultSaver.
type ResultData struct {
	RunID       string
	MoveID      string
	Outcome     string
	Branch      string
	Rank        skillcheck.Rank
	Successes   int
	Damage      int
	Multiplier  float64
	Ticks       uint64
	Active      time.Duration
	Interrupted string // Empty when the action was not interrupted
	Seed        int64
}

// ResultSaver persists finished actions. It lets hosts record results
// without depending on a storage backend.
type ResultSaver interface {
	SaveResult(data ResultData) error
}

// Result converts the report for a ResultSaver.
func (r Report) Result(seed int64) ResultData {
	data := ResultData{
		RunID:      r.RunID,
		MoveID:     r.Move,
		Outcome:    r.Outcome,
		Branch:     r.Branch.String(),
		Rank:       r.Rank,
		Successes:  r.Successes,
		Damage:     r.Damage,
		Multiplier: r.Multiplier,
		Ticks:      r.Ticks,
		Active:     r.Active,
		Seed:       seed,
	}
	if r.Interrupted != battle.InterruptNone {
		data.Interrupted = r.Interrupted.String()
	}
	return data
}
