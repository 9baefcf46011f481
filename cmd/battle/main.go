// battle is a terminal front end and headless runner for timed battle moves.
//
// Usage:
//
//	battle list              - List available moves
//	battle play <move>       - Fight with a single move
//	battle menu              - Pick moves interactively
//	battle run <move>        - Run a move headlessly from an input script
//	battle stats [move]      - Show recorded results
//	battle serve             - Start SSH server for remote play
//
// Global flags:
//
//	--fps <rate>         - Set tick rate (default: from config, 60)
//	--seed <value>       - Set RNG seed for reproducible battles
//	--db <path>          - Set database path (default: ~/.battle/results.db)
//	--config <path>      - Load engine config from a YAML file
//	--moves <dir>        - Load move scripts from a directory
//	--difficulty <name>  - Difficulty preset: easy, normal, hard, fixed
//	--policy <name>      - Input policy: explicit, end_on_branch_change, grace
//	--log-level <level>  - debug, info, warn or error
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-battle/internal/config"
	"github.com/vovakirdan/tui-battle/internal/moves"
	"github.com/vovakirdan/tui-battle/internal/storage"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagMovesDir   string
	flagDifficulty string
	flagPolicy     string
	flagLogLevel   string

	// Resolved in PersistentPreRunE
	engineConfig config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "battle",
	Short: "Battle - timed combat moves in your terminal",
	Long: `Battle runs turn-based combat moves whose damage depends on timed
button presses: hit the window, mash the button, or hold and release
at the right moment.

Available commands:
  list     - Show all available moves
  play     - Fight with a specific move
  menu     - Interactive move picker
  run      - Run a move headlessly from an input script
  stats    - View recorded results
  serve    - Start SSH server for remote play

Examples:
  battle list
  battle play strike
  battle menu --difficulty hard
  battle run charge --input "hold@100ms, release@1.2s"
  battle serve --ssh :2222`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEngineConfig,
}

func init() {
	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	pf.Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	pf.StringVar(&flagDBPath, "db", "", "Path to results database (default ~/.battle/results.db)")
	pf.StringVar(&flagConfig, "config", "", "Path to engine config YAML")
	pf.StringVar(&flagMovesDir, "moves", "", "Directory of move scripts to load")
	pf.StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	pf.StringVar(&flagPolicy, "policy", "", "Input policy: explicit, end_on_branch_change, grace")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadEngineConfig loads the config file, applies flag overrides on top of
// it and registers script moves.
func loadEngineConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("fps") {
		cfg.Runtime.TickRate = flagFPS
	}
	if flags.Changed("seed") {
		cfg.Runtime.Seed = flagSeed
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	if flagMovesDir != "" {
		cfg.Moves.Dir = flagMovesDir
	}
	if flagPolicy != "" {
		cfg.Input.Policy = flagPolicy
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagDifficulty != "" {
		preset, err := config.ParsePreset(flagDifficulty)
		if err != nil {
			return err
		}
		config.ApplyPreset(&cfg, preset)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Moves.Dir != "" {
		if _, err := moves.LoadDir(cfg.Moves.Dir); err != nil {
			return err
		}
	}

	engineConfig = cfg
	return nil
}

// dbPath returns the configured results database path.
func dbPath() string {
	if engineConfig.Storage.Path != "" {
		return engineConfig.Storage.Path
	}
	return filepath.Join(config.DataDir(), "results.db")
}

// openStore opens the results database. Interactive commands keep running
// without it.
func openStore() *storage.Store {
	store, err := storage.Open(dbPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open results database: %v\n", err)
		return nil
	}
	return store
}

// newLogger builds the command logger. Full-screen commands log to
// ~/.battle/battle.log so the terminal stays clean.
func newLogger(toFile bool) (*log.Logger, func()) {
	out := os.Stderr
	closer := func() {}
	if toFile {
		path := filepath.Join(config.DataDir(), "battle.log")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				out = f
				closer = func() { f.Close() }
			}
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "battle",
	})
	if level, err := log.ParseLevel(engineConfig.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger, closer
}
