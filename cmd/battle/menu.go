package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-battle/internal/platform/tui"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start with a move picker menu",
	Long: `Start in interactive menu mode.

Use arrow keys or j/k to pick a move, Left/Right to change difficulty and
Enter to fight. Leaving a battle returns you to the menu.

Controls:
  Up/Down/j/k    - Navigate menu
  Left/Right     - Difficulty preset
  Enter/Space    - Fight with the selected move
  Tab            - Results
  Q              - Quit

Examples:
  battle menu
  battle menu --fps 30
  battle menu --db ./results.db`,
	Run: runMenu,
}

func runMenu(_ *cobra.Command, _ []string) {
	if err := applyTheme(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store := openStore()
	logger, closeLog := newLogger(true)
	cfg := terminalConfig()

	for {
		menuResult, err := tui.RunMenu(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}

		// Keep size and difficulty changes
		cfg = menuResult.Config

		if menuResult.Quit {
			break
		}

		if menuResult.WantsStats {
			goBack, statsErr := tui.RunStats(statsFor(store), cfg.Runtime.ScreenW, cfg.Runtime.ScreenH)
			if statsErr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", statsErr)
			}
			if goBack {
				continue
			}
			break
		}

		if menuResult.MoveID == "" {
			break
		}

		goBack, err := tui.RunBattle(tui.BattleOptions{
			Move:   menuResult.MoveID,
			Config: cfg,
			Saver:  saverFor(store),
			Logger: logger,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running battle: %v\n", err)
			continue
		}
		if !goBack {
			break
		}

		// Later battles reseed from the clock
		cfg.Runtime.Seed = 0
	}

	if store != nil {
		store.Close()
	}
	closeLog()
}
