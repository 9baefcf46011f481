package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-battle/internal/moves"
)

var (
	flagStatsLimit int
	flagClear      bool
)

var statsCmd = &cobra.Command{
	Use:   "stats [move]",
	Short: "Show recorded results",
	Long: `Without a move, shows a summary of every move that has been used.
With a move, shows its best recorded actions.

Examples:
  battle stats
  battle stats charge
  battle stats charge --limit 20
  battle stats charge --clear`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&flagStatsLimit, "limit", 10, "Number of actions to show")
	statsCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete the recorded actions of the move")
}

func runStats(cmd *cobra.Command, args []string) {
	store := openStore()
	if store == nil {
		os.Exit(1)
	}
	defer store.Close()

	if len(args) == 0 {
		if flagClear {
			fmt.Fprintln(os.Stderr, "Error: --clear needs a move")
			os.Exit(1)
		}
		all, err := store.GetAllMoveStats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error retrieving stats: %v\n", err)
			return
		}
		if len(all) == 0 {
			fmt.Println("No actions recorded yet.")
			return
		}

		ids := make([]string, 0, len(all))
		for id := range all {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Printf("  %-12s  %-5s  %-8s  %-6s  %-8s  %s\n", "Move", "Uses", "Success", "Best", "AvgDmg", "Last used")
		fmt.Printf("  %-12s  %-5s  %-8s  %-6s  %-8s  %s\n", "----", "----", "-------", "----", "------", "---------")
		for _, id := range ids {
			s := all[id]
			fmt.Printf("  %-12s  %-5d  %-7.0f%%  %-6s  %-8.1f  %s\n",
				id, s.Count, s.SuccessRate()*100, s.BestRank, s.AvgDamage, s.LastUsed.Format("2006-01-02 15:04"))
		}
		return
	}

	moveID := args[0]
	title := moveID
	if m, err := moves.Create(moveID); err == nil {
		title = m.Title()
	}

	if flagClear {
		if err := store.ClearActions(moveID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Cleared results for %s.\n", title)
		return
	}

	actions, err := store.BestActions(moveID, flagStatsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving actions: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Best actions - %s\n", title)
	fmt.Println()

	if len(actions) == 0 {
		fmt.Println("No actions recorded yet.")
		fmt.Println()
		fmt.Printf("Run 'battle play %s' to record the first one!\n", moveID)
		return
	}

	fmt.Printf("  %-4s  %-6s  %-6s  %-5s  %-8s  %s\n", "#", "Rank", "Damage", "Mult", "Outcome", "Date")
	fmt.Printf("  %-4s  %-6s  %-6s  %-5s  %-8s  %s\n", "-", "----", "------", "----", "-------", "----")
	for i, a := range actions {
		fmt.Printf("  %-4d  %-6s  %-6d  %-5.2f  %-8s  %s\n",
			i+1, a.Rank, a.Damage, a.Multiplier, a.Outcome, a.CreatedAt.Format("2006-01-02 15:04"))
	}

	if s, err := store.GetMoveStats(moveID); err == nil {
		fmt.Println()
		fmt.Printf("Uses: %d  Success: %.0f%%  Best: %s\n", s.Count, s.SuccessRate()*100, s.BestRank)
	}
}
