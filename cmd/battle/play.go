package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-battle/internal/config"
	"github.com/vovakirdan/tui-battle/internal/moves"
	"github.com/vovakirdan/tui-battle/internal/platform/tui"
	"github.com/vovakirdan/tui-battle/internal/storage"
)

var flagTheme string

var playCmd = &cobra.Command{
	Use:   "play <move>",
	Short: "Fight with a move",
	Long: `Start a battle using the specified move.

Controls:
  Space/Z    - Primary button (hold checks toggle on each press)
  X          - Secondary button
  P          - Pause
  Enter      - Skip dialogue; next turn after the action ends
  R          - New battle (after the action ends)
  Q/Ctrl+C   - Quit

Difficulty options:
  easy   - Lenient timing, tightens as you win
  normal - Start at 30% difficulty
  hard   - Start at 70% difficulty
  fixed  - No progression, stays at config's initial level

Examples:
  battle play strike
  battle play charge --difficulty easy
  battle play flurry --theme mono
  battle play lunge
  battle play slam --moves ./my-moves`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagTheme, "theme", "", "Color theme: default, mono")
	menuCmd.Flags().StringVar(&flagTheme, "theme", "", "Color theme: default, mono")
}

func runPlay(cmd *cobra.Command, args []string) {
	moveID := args[0]

	if !moves.Exists(moveID) {
		fmt.Fprintf(os.Stderr, "Error: unknown move %q\n", moveID)
		fmt.Fprintln(os.Stderr, "Run 'battle list' to see available moves.")
		os.Exit(1)
	}
	if err := applyTheme(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := terminalConfig()
	logger, closeLog := newLogger(true)
	store := openStore()

	_, runErr := tui.RunBattle(tui.BattleOptions{
		Move:   moveID,
		Config: cfg,
		Saver:  saverFor(store),
		Logger: logger,
	})

	if store != nil {
		store.Close()
	}
	closeLog()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running battle: %v\n", runErr)
		os.Exit(1)
	}
}

func applyTheme() error {
	t, err := tui.ThemeByName(flagTheme)
	if err != nil {
		return err
	}
	tui.SetTheme(t)
	return nil
}

// terminalConfig returns the engine config sized to the current terminal.
func terminalConfig() config.Config {
	cfg := engineConfig
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cfg.Runtime.ScreenW = w
		cfg.Runtime.ScreenH = h
	}
	return cfg
}

// saverFor keeps a missing store out of the interface.
func saverFor(store *storage.Store) moves.ResultSaver {
	if store == nil {
		return nil
	}
	return store
}

func statsFor(store *storage.Store) tui.StatsSource {
	if store == nil {
		return nil
	}
	return store
}
