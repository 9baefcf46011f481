package moves

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/core"
	"github.com/vovakirdan/tui-battle/internal/sequence"
	"github.com/vovakirdan/tui-battle/internal/skillcheck"
	"github.com/vovakirdan/tui-battle/internal/step"
)

//go:embed scripts/*.yaml
var embeddedScripts embed.FS

func init() {
	if _, err := registerFS(embeddedScripts, "scripts", "embedded"); err != nil {
		panic(err.Error())
	}
}

// Script is the YAML form of a move.
type Script struct {
	ID          string                `yaml:"id"`
	Title       string                `yaml:"title"`
	Description string                `yaml:"description"`
	Power       float64               `yaml:"power"`
	Check       *ScriptCheck          `yaml:"check"`
	OnSuccess   *ScriptHook           `yaml:"on_success"`
	OnFailed    *ScriptHook           `yaml:"on_failed"`
	OnMiss      *ScriptHook           `yaml:"on_miss"`
	OnResponse  *ScriptHook           `yaml:"on_response"`
	Branches    map[string][]ScriptOp `yaml:"branches"`
}

// ScriptCheck configures the move's skill check. Durations accept Go
// duration strings or "infinite".
type ScriptCheck struct {
	Kind        string                    `yaml:"kind"`
	Button      string                    `yaml:"button"`
	Duration    string                    `yaml:"duration"`
	WindowStart string                    `yaml:"window_start"`
	WindowEnd   string                    `yaml:"window_end"`
	FillTime    string                    `yaml:"fill_time"`
	BandLow     float64                   `yaml:"band_low"`
	BandHigh    float64                   `yaml:"band_high"`
	MaxHold     string                    `yaml:"max_hold"`
	Target      int                       `yaml:"target"`
	Cooldown    string                    `yaml:"cooldown"`
	Thresholds  skillcheck.RankThresholds `yaml:"thresholds"`
}

// ScriptHook overrides a default reaction.
type ScriptHook struct {
	// Stay keeps the current branch on success or failure.
	Stay bool `yaml:"stay"`
	// Multiplier is evaluated and stored when the hook fires.
	Multiplier string `yaml:"multiplier"`
	// SuppressWhen cancels the jump to the miss branch when true.
	SuppressWhen string `yaml:"suppress_when"`
	// Set stores streamed check values under this name.
	Set string `yaml:"set"`
}

// ScriptOp is one entry of a branch.
type ScriptOp struct {
	Op         string        `yaml:"op"`
	When       string        `yaml:"when"`
	Who        string        `yaml:"who"`
	To         string        `yaml:"to"`
	Offset     float64       `yaml:"offset"`
	Duration   time.Duration `yaml:"duration"`
	Easing     string        `yaml:"easing"`
	Name       string        `yaml:"name"`
	Speaker    string        `yaml:"speaker"`
	Text       string        `yaml:"text"`
	Limit      time.Duration `yaml:"limit"`
	Power      string        `yaml:"power"`
	Multiplier string        `yaml:"multiplier"`
	Unerring   bool          `yaml:"unerring"` // hit skips the evasion roll
	Value      string        `yaml:"value"`
	Branch     string        `yaml:"branch"`
	Else       string        `yaml:"else"`
	Step       *ScriptOp     `yaml:"step"`
}

// ParseScript decodes and compiles a YAML move.
func ParseScript(data []byte, source string) (Move, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("moves: parse %s: %w", source, err)
	}
	m, err := compileScript(sc)
	if err != nil {
		return nil, fmt.Errorf("moves: %s: %w", source, err)
	}
	return m, nil
}

// LoadDir registers every *.yaml and *.yml script in dir and returns the new
// move IDs.
func LoadDir(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("moves: scripts dir: %w", err)
	}
	return registerFS(os.DirFS(dir), ".", dir)
}

func registerFS(fsys fs.FS, dir, source string) ([]string, error) {
	var names []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		found, err := fs.Glob(fsys, path.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("moves: scan %s: %w", source, err)
		}
		names = append(names, found...)
	}

	var ids []string
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return ids, fmt.Errorf("moves: read %s: %w", name, err)
		}
		m, err := ParseScript(data, name)
		if err != nil {
			return ids, err
		}
		where := source + ":" + path.Base(name)
		if err := Add(m.ID(), func() Move { return m }, where); err != nil {
			return ids, err
		}
		ids = append(ids, m.ID())
	}
	return ids, nil
}

// scriptMove is a compiled Script. It is immutable, so one instance serves
// every execution.
type scriptMove struct {
	id, title, desc string
	power           float64
	check           *skillcheck.Config
	branches        map[sequence.Branch][]compiledOp
	hooks           compiledHooks
}

type compiledOp struct {
	op   ScriptOp
	when *Formula
	// Formulas for hit, set and branch_if.
	power      *Formula
	multiplier *Formula
	value      *Formula
	target     sequence.Branch
	otherwise  *sequence.Branch
}

type compiledHooks struct {
	successStay bool
	successMult *Formula
	failedStay  bool
	failedMult  *Formula
	missWhen    *Formula
	responseKey string
}

func (m *scriptMove) ID() string          { return m.id }
func (m *scriptMove) Title() string       { return m.title }
func (m *scriptMove) Description() string { return m.desc }
func (m *scriptMove) Power() float64      { return m.power }

func (m *scriptMove) Check() *skillcheck.Config {
	if m.check == nil {
		return nil
	}
	c := *m.check
	return &c
}

func (m *scriptMove) Build() (*sequence.Table, sequence.Hooks) {
	t := sequence.NewTable()
	for _, b := range sequence.Branches {
		for _, op := range m.branches[b] {
			t.On(b, op.transition())
		}
	}
	return t, m.hooks.build()
}

func compileScript(sc Script) (*scriptMove, error) {
	if sc.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	m := &scriptMove{
		id:       sc.ID,
		title:    sc.Title,
		desc:     sc.Description,
		power:    sc.Power,
		branches: make(map[sequence.Branch][]compiledOp),
	}
	if m.title == "" {
		m.title = sc.ID
	}

	if sc.Check != nil {
		cfg, err := sc.Check.config()
		if err != nil {
			return nil, err
		}
		m.check = &cfg
	}

	for name, ops := range sc.Branches {
		b, err := sequence.ParseBranch(name)
		if err != nil {
			return nil, err
		}
		for i, op := range ops {
			c, err := compileOp(op)
			if err != nil {
				return nil, fmt.Errorf("branches.%s[%d]: %w", name, i, err)
			}
			m.branches[b] = append(m.branches[b], c)
		}
	}
	for _, b := range sequence.Branches {
		if len(m.branches[b]) == 0 {
			return nil, fmt.Errorf("%w: branch %s has no ops", sequence.ErrInvalidTable, b)
		}
	}

	hooks, err := compileHooks(sc)
	if err != nil {
		return nil, err
	}
	m.hooks = hooks
	return m, nil
}

func (c *ScriptCheck) config() (skillcheck.Config, error) {
	kind, err := skillcheck.ParseKind(c.Kind)
	if err != nil {
		return skillcheck.Config{}, err
	}
	btn, ok := core.ParseAction(c.Button)
	if !ok {
		return skillcheck.Config{}, fmt.Errorf("check: unknown button %q", c.Button)
	}
	cfg := skillcheck.Config{
		Kind:       kind,
		Button:     btn,
		BandLow:    c.BandLow,
		BandHigh:   c.BandHigh,
		Target:     c.Target,
		Thresholds: c.Thresholds,
	}
	fields := []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{"duration", c.Duration, &cfg.Duration},
		{"window_start", c.WindowStart, &cfg.WindowStart},
		{"window_end", c.WindowEnd, &cfg.WindowEnd},
		{"fill_time", c.FillTime, &cfg.FillTime},
		{"max_hold", c.MaxHold, &cfg.MaxHold},
		{"cooldown", c.Cooldown, &cfg.Cooldown},
	}
	for _, f := range fields {
		d, err := parseDuration(f.src)
		if err != nil {
			return skillcheck.Config{}, fmt.Errorf("check.%s: %w", f.name, err)
		}
		*f.dst = d
	}
	if err := cfg.Validate(); err != nil {
		return skillcheck.Config{}, err
	}
	return cfg, nil
}

func parseDuration(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "infinite", "inf":
		return skillcheck.Infinite, nil
	}
	return time.ParseDuration(s)
}

var knownOps = map[string]bool{
	"wait": true, "move_to": true, "move_home": true, "animate": true,
	"event": true, "dialogue": true, "check": true, "end_check": true,
	"hit": true, "side": true, "wait_side": true, "goto": true,
	"branch_if": true, "set": true, "end": true,
}

// sideOps can run as side work.
var sideOps = map[string]bool{
	"wait": true, "move_to": true, "move_home": true, "animate": true,
	"event": true, "dialogue": true,
}

func compileOp(op ScriptOp) (compiledOp, error) {
	c := compiledOp{op: op}
	if !knownOps[op.Op] {
		return c, fmt.Errorf("unknown op %q", op.Op)
	}
	if _, err := core.ParseEasing(op.Easing); err != nil {
		return c, err
	}
	var err error
	if op.When != "" && op.Op != "branch_if" {
		if c.when, err = CompileCondition(op.When); err != nil {
			return c, err
		}
	}

	switch op.Op {
	case "hit":
		power := op.Power
		if power == "" {
			power = "power"
		}
		if c.power, err = CompileNumber(power); err != nil {
			return c, err
		}
		if op.Multiplier != "" {
			if c.multiplier, err = CompileNumber(op.Multiplier); err != nil {
				return c, err
			}
		}
		if op.Unerring && op.Who == "all" {
			return c, fmt.Errorf("unerring hit needs a single target")
		}
	case "set":
		if op.Name == "" {
			return c, fmt.Errorf("set needs a name")
		}
		if c.value, err = CompileNumber(op.Value); err != nil {
			return c, err
		}
	case "goto":
		if c.target, err = sequence.ParseBranch(op.Branch); err != nil {
			return c, err
		}
	case "branch_if":
		if op.When == "" {
			return c, fmt.Errorf("branch_if needs a condition")
		}
		if c.value, err = CompileCondition(op.When); err != nil {
			return c, err
		}
		if c.target, err = sequence.ParseBranch(op.Branch); err != nil {
			return c, err
		}
		if op.Else != "" {
			b, err := sequence.ParseBranch(op.Else)
			if err != nil {
				return c, err
			}
			c.otherwise = &b
		}
	case "side":
		if op.Step == nil {
			return c, fmt.Errorf("side needs a step")
		}
		if !sideOps[op.Step.Op] {
			return c, fmt.Errorf("op %q cannot run as side work", op.Step.Op)
		}
		if _, err := core.ParseEasing(op.Step.Easing); err != nil {
			return c, err
		}
	}
	return c, nil
}

func compileHooks(sc Script) (compiledHooks, error) {
	var h compiledHooks
	var err error
	if sc.OnSuccess != nil {
		h.successStay = sc.OnSuccess.Stay
		if sc.OnSuccess.Multiplier != "" {
			if h.successMult, err = CompileNumber(sc.OnSuccess.Multiplier); err != nil {
				return h, err
			}
		}
	}
	if sc.OnFailed != nil {
		h.failedStay = sc.OnFailed.Stay
		if sc.OnFailed.Multiplier != "" {
			if h.failedMult, err = CompileNumber(sc.OnFailed.Multiplier); err != nil {
				return h, err
			}
		}
	}
	if sc.OnMiss != nil && sc.OnMiss.SuppressWhen != "" {
		if h.missWhen, err = CompileCondition(sc.OnMiss.SuppressWhen); err != nil {
			return h, err
		}
	}
	if sc.OnResponse != nil {
		h.responseKey = sc.OnResponse.Set
	}
	return h, nil
}

func (h compiledHooks) build() sequence.Hooks {
	var hooks sequence.Hooks
	if h.successStay || h.successMult != nil {
		hooks.OnCommandSuccess = func(s *sequence.Sequence) bool {
			if h.successMult != nil {
				s.SetMultiplier(number(s, h.successMult, s.Multiplier()))
			}
			return h.successStay
		}
	}
	if h.failedStay || h.failedMult != nil {
		hooks.OnCommandFailed = func(s *sequence.Sequence) bool {
			if h.failedMult != nil {
				s.SetMultiplier(number(s, h.failedMult, s.Multiplier()))
			}
			return h.failedStay
		}
	}
	if h.missWhen != nil {
		hooks.OnMiss = func(s *sequence.Sequence) bool {
			return condition(s, h.missWhen)
		}
	}
	if h.responseKey != "" {
		hooks.OnCommandResponse = func(s *sequence.Sequence, v float64) {
			s.SetValue(h.responseKey, v)
		}
	}
	return hooks
}

// entity resolves "user", "target" or a literal entity ID.
func entity(s *sequence.Sequence, who string) battle.EntityID {
	switch who {
	case "", "user":
		return s.Info().User
	case "target":
		return target(s)
	default:
		return battle.EntityID(who)
	}
}

func (c compiledOp) transition() sequence.Transition {
	return func(s *sequence.Sequence) {
		if c.when != nil && !condition(s, c.when) {
			s.Advance()
			return
		}
		c.run(s)
	}
}

func (c compiledOp) run(s *sequence.Sequence) {
	op := c.op
	easing, _ := core.ParseEasing(op.Easing)
	who := entity(s, op.Who)

	switch op.Op {
	case "wait":
		s.Wait(op.Duration)
	case "move_to":
		s.MoveTo(who, destination(s, op), op.Duration, easing)
	case "move_home":
		s.MoveHome(who, op.Duration, easing)
	case "animate":
		s.Animate(who, op.Name, op.Duration)
	case "event":
		s.Event(op.Name, op.Duration)
	case "dialogue":
		s.Say(speaker(s, op), op.Text, op.Duration)
	case "check":
		// An omitted limit waits on the check alone.
		limit := op.Limit
		if limit == 0 {
			limit = skillcheck.Infinite
		}
		s.WaitCheck(limit)
	case "end_check":
		s.EndCheck()
		s.Advance()
	case "hit":
		c.hit(s)
	case "side":
		s.AddSideWork(sideStep(s, *op.Step))
		s.Advance()
	case "wait_side":
		s.WaitSideWork()
	case "set":
		s.SetValue(op.Name, number(s, c.value, 0))
		s.Advance()
	case "goto":
		s.ChangeBranch(c.target)
	case "branch_if":
		switch {
		case condition(s, c.value):
			s.ChangeBranch(c.target)
		case c.otherwise != nil:
			s.ChangeBranch(*c.otherwise)
		default:
			s.Advance()
		}
	case "end":
		s.End()
	}
}

func (c compiledOp) hit(s *sequence.Sequence) {
	if c.multiplier != nil {
		s.SetMultiplier(number(s, c.multiplier, s.Multiplier()))
	}
	power := number(s, c.power, s.Info().Power)
	b := s.Branch()

	if c.op.Who == "all" {
		for _, res := range s.HitAll(power) {
			if res.Kind == battle.ResultInterrupted && s.Branch() == b {
				s.ChangeBranch(sequence.BranchEnd)
				return
			}
		}
		if s.Branch() == b {
			s.Advance()
		}
		return
	}

	who := target(s)
	if c.op.Who != "" && c.op.Who != "target" {
		who = entity(s, c.op.Who)
	}
	var res battle.Result
	if c.op.Unerring {
		res = s.HitUnerring(who, power)
	} else {
		res = s.Hit(who, power)
	}
	if s.Branch() != b {
		return
	}
	if res.Kind == battle.ResultInterrupted {
		s.ChangeBranch(sequence.BranchEnd)
		return
	}
	s.Advance()
}

func destination(s *sequence.Sequence, op ScriptOp) core.Vec2 {
	var base core.Vec2
	switch op.To {
	case "home":
		if e := s.Entity(entity(s, op.Who)); e != nil {
			base = e.Home
		}
	default:
		if e := s.Entity(entity(s, op.To)); e != nil {
			base = e.Position()
		}
	}
	return base.Add(core.V(op.Offset, 0))
}

func speaker(s *sequence.Sequence, op ScriptOp) string {
	if op.Speaker != "" {
		return op.Speaker
	}
	if e := s.Entity(entity(s, op.Who)); e != nil {
		return e.Name
	}
	return ""
}

// sideStep builds a step for side work without installing it.
func sideStep(s *sequence.Sequence, op ScriptOp) step.Step {
	ctx := s.Context()
	easing, _ := core.ParseEasing(op.Easing)
	e := s.Entity(entity(s, op.Who))

	switch op.Op {
	case "move_to", "move_home":
		var tr battle.Transform
		dest := destination(s, op)
		if e != nil {
			tr = e
			if op.Op == "move_home" {
				dest = e.Home
			}
		}
		return step.MoveTo(ctx, tr, dest, op.Duration, easing)
	case "animate":
		var a battle.Animator
		if e != nil {
			a = e
		}
		return step.PlayAnimation(ctx, a, op.Name, op.Duration)
	case "event":
		if ctx.Events == nil {
			return step.WaitEvent(nil, 0)
		}
		length := step.Positive(ctx, step.KindEvent, op.Duration)
		return step.WaitEvent(ctx.Events, ctx.Events.Post(op.Name, ctx.Now(), length))
	case "dialogue":
		if ctx.Dialogue == nil {
			return step.WaitDialogue(nil, 0)
		}
		length := step.Positive(ctx, step.KindDialogue, op.Duration)
		return step.WaitDialogue(ctx.Dialogue, ctx.Dialogue.Say(speaker(s, op), op.Text, ctx.Now(), length))
	default:
		return step.Wait(ctx, op.Duration)
	}
}
