// Package moves defines the combat moves a sequence can execute: the
// built-in moves written in Go, moves loaded from YAML scripts, and the
// headless Runner that plays a move to completion.
package moves

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/sequence"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
)

// Move describes one action. Build is called once per execution so closure
// state in transitions and hooks never leaks between runs.
type Move interface {
	ID() string
	Title() string
	Description() string
	Power() float64
	// Check returns the skill check the move uses, or nil.
	Check() *skillcheck.Config
	Build() (*sequence.Table, sequence.Hooks)
}

// Setup binds a move to a stage.
type Setup struct {
	User        battle.EntityID
	Targets     []battle.EntityID
	Policy      sequence.InputPolicy
	GraceWindow time.Duration
	// CheckScale widens (>1) or narrows (<1) skill-check timing.
	CheckScale float64
}

// Prepare creates a sequence executing m. The sequence is not started.
func Prepare(ctx *battle.Context, m Move, setup Setup) (*sequence.Sequence, error) {
	table, hooks := m.Build()
	opts := sequence.Options{
		Policy:      setup.Policy,
		GraceWindow: setup.GraceWindow,
		Hooks:       hooks,
	}
	if cfg := m.Check(); cfg != nil {
		scaled := cfg.Scale(setup.CheckScale)
		if err := scaled.Validate(); err != nil {
			return nil, fmt.Errorf("moves: %s: %w", m.ID(), err)
		}
		opts.Check = &scaled
	}
	info := sequence.Info{
		ID:      m.ID(),
		Name:    m.Title(),
		Power:   m.Power(),
		User:    setup.User,
		Targets: setup.Targets,
	}
	seq, err := sequence.New(ctx, info, table, opts)
	if err != nil {
		return nil, fmt.Errorf("moves: %w", err)
	}
	return seq, nil
}

// rankMultiplier maps a skill-check rank to an effect multiplier.
func rankMultiplier(r skillcheck.Rank) float64 {
	switch r {
	case skillcheck.RankGreat:
		return 1.5
	case skillcheck.RankGood:
		return 1.25
	case skillcheck.RankOK:
		return 1.1
	default:
		return 1
	}
}
