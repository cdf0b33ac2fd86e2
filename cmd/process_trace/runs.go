package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"process_trace/internal/store"
)

var runsDBPath string

var runsCmd = &cobra.Command{
	Use:   "runs --db <path>",
	Short: "List recorded trace runs from a SQLite database",
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsDBPath, "db", "", "trace database path")
	_ = runsCmd.MarkFlagRequired("db")
}

func runRuns(cmd *cobra.Command, args []string) error {
	summaries, err := store.ListRuns(runsDBPath)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTARGET\tPID\tSTARTED\tINTERVAL\tSAMPLES")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%.0fs\t%d\n",
			s.ID, s.Target, s.PID,
			s.StartedAt.Local().Format(time.RFC3339),
			s.IntervalSeconds, s.Samples)
	}
	return tw.Flush()
}
