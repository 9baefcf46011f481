package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-battle/internal/battle"
	"github.com/vovakirdan/tui-battle/internal/config"
	"github.com/vovakirdan/tui-battle/internal/moves"
)

var (
	flagInput     string
	flagMash      int
	flagMashStart time.Duration
	flagMashEvery time.Duration
	flagPauses    []string
	flagTrace     bool
	flagNoSave    bool
)

var runCmd = &cobra.Command{
	Use:   "run <move>",
	Short: "Run a move headlessly",
	Long: `Run a move without a terminal UI, feeding it scripted input.

Input events have the form kind[:action]@time, where kind is press, hold
or release and time is measured on the battle clock from the start of the
action. The action defaults to primary.

Examples:
  battle run strike --input "press@350ms"
  battle run charge --input "hold@100ms, release@1.2s"
  battle run flurry --mash 12 --mash-every 80ms
  battle run strike --pause 200ms:1s --trace --seed 42`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagInput, "input", "", "Input script, e.g. \"hold@100ms, release@1.2s\"")
	runCmd.Flags().IntVar(&flagMash, "mash", 0, "Append N primary presses")
	runCmd.Flags().DurationVar(&flagMashStart, "mash-start", 100*time.Millisecond, "Time of the first mashed press")
	runCmd.Flags().DurationVar(&flagMashEvery, "mash-every", 100*time.Millisecond, "Interval between mashed presses")
	runCmd.Flags().StringSliceVar(&flagPauses, "pause", nil, "Pause the clock: at:for in wall time, e.g. 200ms:1s")
	runCmd.Flags().BoolVar(&flagTrace, "trace", false, "Print the branch and step trace")
	runCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not record the result")
}

func runRun(cmd *cobra.Command, args []string) {
	moveID := args[0]

	if !moves.Exists(moveID) {
		fmt.Fprintf(os.Stderr, "Error: unknown move %q\n", moveID)
		fmt.Fprintln(os.Stderr, "Run 'battle list' to see available moves.")
		os.Exit(1)
	}

	script, err := moves.ParseInputScript(flagInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if flagMash > 0 {
		script = append(script, moves.Mash(flagMashStart, flagMashEvery, flagMash)...)
		sort.SliceStable(script, func(i, j int) bool { return script[i].At < script[j].At })
	}

	pauses, err := parsePauses(flagPauses)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := engineConfig
	logger, closeLog := newLogger(false)
	defer closeLog()

	seed := cfg.Runtime.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	bctx := moves.NewStage(seed)
	bctx.Logger = logger
	bctx.Sink = battle.LogSink{Logger: logger}

	policy, err := cfg.InputPolicy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	setup := moves.StageSetup()
	setup.Policy = policy
	setup.GraceWindow = cfg.Input.GraceWindow
	setup.CheckScale = config.NewDifficultyManager(cfg.Difficulty).CheckScale(0, 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := moves.Runner{TickRate: cfg.Runtime.TickRate, Pauses: pauses}
	rep, err := moves.Execute(ctx, bctx, moveID, setup, script, runner)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printReport(rep, seed)

	if flagNoSave {
		return
	}
	store := openStore()
	if store == nil {
		return
	}
	defer store.Close()
	if err := store.SaveResult(rep.Result(seed)); err != nil {
		logger.Warn("could not save result", "move", rep.Move, "error", err)
	}
}

// parsePauses parses at:for pairs.
func parsePauses(specs []string) ([]moves.PauseSpan, error) {
	spans := make([]moves.PauseSpan, 0, len(specs))
	for _, s := range specs {
		at, dur, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("pause %q: want at:for", s)
		}
		a, err := time.ParseDuration(at)
		if err != nil {
			return nil, fmt.Errorf("pause %q: %w", s, err)
		}
		d, err := time.ParseDuration(dur)
		if err != nil {
			return nil, fmt.Errorf("pause %q: %w", s, err)
		}
		spans = append(spans, moves.PauseSpan{At: a, For: d})
	}
	return spans, nil
}

func printReport(rep moves.Report, seed int64) {
	fmt.Printf("Move:       %s\n", rep.Move)
	fmt.Printf("Outcome:    %s (ended in %s)\n", rep.Outcome, rep.Branch)
	fmt.Printf("Rank:       %s  x%.2f  (%d checks passed)\n", rep.Rank, rep.Multiplier, rep.Successes)
	fmt.Printf("Damage:     %d\n", rep.Damage)
	if rep.Interrupted != battle.InterruptNone {
		fmt.Printf("Interrupted: %s\n", rep.Interrupted)
	}
	fmt.Printf("Ticks:      %d (%s active, %s wall)\n", rep.Ticks, rep.Active, rep.Wall)
	fmt.Printf("Seed:       %d\n", seed)
	fmt.Printf("Run:        %s\n", rep.RunID)
	if rep.Diagnostics > 0 {
		fmt.Printf("Diagnostics: %d (see log)\n", rep.Diagnostics)
	}

	if len(rep.Values) > 0 {
		keys := make([]string, 0, len(rep.Values))
		for k := range rep.Values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println()
		fmt.Println("Values:")
		for _, k := range keys {
			fmt.Printf("  %-12s %g\n", k, rep.Values[k])
		}
	}

	if flagTrace {
		fmt.Println()
		fmt.Println("Trace:")
		for _, e := range rep.Trace {
			fmt.Printf("  %s\n", e)
		}
	}
}
