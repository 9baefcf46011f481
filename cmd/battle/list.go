package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-battle/internal/moves"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available moves",
	Long:  `Shows the built-in moves and any moves loaded from scripts.`,
	Run:   runList,
}

func runList(cmd *cobra.Command, args []string) {
	listings := moves.List()

	if len(listings) == 0 {
		fmt.Println("No moves available.")
		return
	}

	fmt.Println("Available moves:")
	fmt.Println()

	idLen, titleLen, checkLen := 2, 5, 5
	for _, l := range listings {
		idLen = max(idLen, len(l.ID))
		titleLen = max(titleLen, len(l.Title))
		checkLen = max(checkLen, len(l.Check))
	}

	fmt.Printf("  %-*s  %-*s  %-*s  %s\n", idLen, "ID", titleLen, "Title", checkLen, "Check", "Source")
	fmt.Printf("  %-*s  %-*s  %-*s  %s\n", idLen, "--", titleLen, "-----", checkLen, "-----", "------")

	for _, l := range listings {
		check := l.Check
		if check == "" {
			check = "-"
		}
		fmt.Printf("  %-*s  %-*s  %-*s  %s\n", idLen, l.ID, titleLen, l.Title, checkLen, check, l.Source)
	}

	fmt.Println()
	fmt.Println("Run 'battle play <id>' to fight with a move.")
}
