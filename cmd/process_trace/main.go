// process_trace samples the resource usage of Linux processes from /proc
// and writes per-interval delta records to CSV files or a SQLite database.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"process_trace/internal/log"
)

// Version information injected at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "process_trace",
	Short: "Trace resource usage of Linux processes",
	Long: `process_trace periodically samples memory, CPU, fault and
context-switch counters of running processes from /proc and records the
per-interval deltas.

Each traced process gets a resource_trace_<name>.csv file; samples can
additionally be recorded into a SQLite database for later comparison.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Options{Verbose: verbose, JSONFormat: jsonOut})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "log in JSON format")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
