package moves

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/sequence"
)

// Env is what script formulas can read.
type Env struct {
	Power       float64            `expr:"power"`
	Multiplier  float64            `expr:"multiplier"`
	Rank        string             `expr:"rank"`
	Progress    float64            `expr:"progress"`
	Response    float64            `expr:"response"`
	Successes   int                `expr:"successes"`
	Roll        float64            `expr:"roll"` // Fresh draw from the battle RNG
	Turn        int                `expr:"turn"`
	UserHP      int                `expr:"user_hp"`
	TargetHP    int                `expr:"target_hp"`
	Interrupted bool               `expr:"interrupted"`
	Values      map[string]float64 `expr:"values"`
}

func envFor(s *sequence.Sequence) Env {
	env := Env{
		Power:       s.Info().Power,
		Multiplier:  s.Multiplier(),
		Rank:        s.Rank().String(),
		Response:    s.LastResponse(),
		Successes:   s.Successes(),
		Turn:        s.Context().Turn,
		Interrupted: s.Interruption() != battle.InterruptNone,
		Values:      s.Values(),
	}
	if s.Rand() != nil {
		env.Roll = s.Rand().Float64()
	}
	if c := s.Check(); c != nil {
		env.Progress = c.Progress()
	}
	if u := s.User(); u != nil {
		env.UserHP = u.HP
	}
	if t := s.Target(0); t != nil {
		env.TargetHP = t.HP
	}
	return env
}

// Formula is a compiled expression.
type Formula struct {
	src  string
	prog *vm.Program
}

// CompileNumber compiles an expression yielding a number.
func CompileNumber(src string) (*Formula, error) {
	prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("moves: compile %q: %w", src, err)
	}
	return &Formula{src: src, prog: prog}, nil
}

// CompileCondition compiles an expression yielding a bool.
func CompileCondition(src string) (*Formula, error) {
	prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("moves: compile %q: %w", src, err)
	}
	return &Formula{src: src, prog: prog}, nil
}

func (f *Formula) String() string { return f.src }

// Number evaluates a numeric formula.
func (f *Formula) Number(env Env) (float64, error) {
	out, err := expr.Run(f.prog, env)
	if err != nil {
		return 0, fmt.Errorf("moves: eval %q: %w", f.src, err)
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("moves: eval %q: got %T, want number", f.src, out)
	}
	return v, nil
}

// Bool evaluates a condition.
func (f *Formula) Bool(env Env) (bool, error) {
	out, err := expr.Run(f.prog, env)
	if err != nil {
		return false, fmt.Errorf("moves: eval %q: %w", f.src, err)
	}
	v, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("moves: eval %q: got %T, want bool", f.src, out)
	}
	return v, nil
}

// number evaluates f for s, logging and returning fallback on error.
func number(s *sequence.Sequence, f *Formula, fallback float64) float64 {
	if f == nil {
		return fallback
	}
	v, err := f.Number(envFor(s))
	if err != nil {
		s.Context().Log().Warn("formula failed", "move", s.Info().ID, "err", err)
		return fallback
	}
	return v
}

// condition evaluates f for s; errors count as false.
func condition(s *sequence.Sequence, f *Formula) bool {
	if f == nil {
		return true
	}
	v, err := f.Bool(envFor(s))
	if err != nil {
		s.Context().Log().Warn("condition failed", "move", s.Info().ID, "err", err)
		return false
	}
	return v
}
