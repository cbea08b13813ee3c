package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rphilander/sexpr/history"
)

var historyCount int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the history database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("no history database configured (set history_db or SEXPR_HISTORY)")
		}
		defer store.Close()

		entries, err := store.Recent(context.Background(), historyCount)
		if err != nil {
			return err
		}
		printHistory(os.Stdout, entries)
		return nil
	},
}

func printHistory(w io.Writer, entries []history.Entry) {
	for _, e := range entries {
		src := strings.Join(strings.Fields(e.Source), " ")
		if e.Error != "" {
			fmt.Fprintf(w, "#%d %s %s !! %s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), src, e.Error)
			continue
		}
		fmt.Fprintf(w, "#%d %s %s => %s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), src, e.Result)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyCount, "n", "n", 20,
		"Number of runs to show")
}
