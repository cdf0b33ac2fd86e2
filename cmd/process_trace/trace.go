package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"process_trace/internal/config"
	"process_trace/internal/monitor"
	"process_trace/internal/output"
	"process_trace/internal/store"
	"process_trace/procutils"
)

var (
	traceConfigPath     string
	traceInterval       time.Duration
	traceDuration       time.Duration
	traceOutputDir      string
	traceDBPath         string
	tracePIDs           []int
	traceLive           bool
	traceFollowRestarts bool
	traceWatchConfig    bool
)

var traceCmd = &cobra.Command{
	Use:   "trace [flags] [name...]",
	Short: "Sample resource usage of processes for a fixed duration",
	Long: `Sample every target process at a fixed interval for a fixed duration.

Targets are process names (matched against comm, then against the command
line) or explicit PIDs. Each sample aggregates the counters of all threads
of the target; consecutive samples produce one delta record.

Example:
  process_trace trace --interval 10s --duration 1m nginx
  process_trace trace --pid 1234 --db traces.db --live`,
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().StringVarP(&traceConfigPath, "config", "c", "", "YAML config file")
	traceCmd.Flags().DurationVarP(&traceInterval, "interval", "i", config.DefaultInterval, "sampling interval")
	traceCmd.Flags().DurationVarP(&traceDuration, "duration", "d", config.DefaultDuration, "total trace duration")
	traceCmd.Flags().StringVarP(&traceOutputDir, "output-dir", "o", ".", "directory for CSV output")
	traceCmd.Flags().StringVar(&traceDBPath, "db", "", "also record samples into this SQLite database")
	traceCmd.Flags().IntSliceVar(&tracePIDs, "pid", nil, "trace this PID (repeatable)")
	traceCmd.Flags().BoolVar(&traceLive, "live", false, "print records to stdout even when it is not a terminal")
	traceCmd.Flags().BoolVar(&traceFollowRestarts, "follow-restarts", false, "re-resolve named targets when they exit")
	traceCmd.Flags().BoolVar(&traceWatchConfig, "watch-config", false, "reload the target list when the config file changes")
}

// buildTraceConfig merges the config file (if any), flags, and positional
// target names. Flags win over the file when set explicitly.
func buildTraceConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if traceConfigPath != "" {
		loaded, err := config.Load(traceConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("interval") {
		cfg.Interval = traceInterval
	}
	if flags.Changed("duration") {
		cfg.Duration = traceDuration
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = traceOutputDir
	}
	if flags.Changed("db") {
		cfg.DBPath = traceDBPath
	}
	if flags.Changed("live") {
		cfg.Live = traceLive
	}
	if flags.Changed("follow-restarts") {
		cfg.FollowRestarts = traceFollowRestarts
	}

	for _, name := range args {
		cfg.Targets = append(cfg.Targets, config.TargetSpec{Name: name})
	}
	for _, pid := range tracePIDs {
		cfg.Targets = append(cfg.Targets, config.TargetSpec{PID: pid})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildHandlers assembles the configured sinks. The returned cleanup
// flushes and closes them.
func buildHandlers(cfg *config.Config) (monitor.MultiHandler, func(), error) {
	csvSink := output.NewCSVSink(cfg.OutputDir)
	handlers := monitor.MultiHandler{csvSink}
	cleanups := []func(){func() {
		if err := csvSink.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing CSV output: %v\n", err)
		}
	}}

	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath, cfg.Interval)
		if err != nil {
			cleanups[0]()
			return nil, nil, err
		}
		handlers = append(handlers, st)
		cleanups = append(cleanups, func() {
			if err := st.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Error closing trace database: %v\n", err)
			}
		})
	}

	handlers = append(handlers, output.NewTableSink(os.Stdout, cfg.Live))

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return handlers, cleanup, nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	cfg, err := buildTraceConfig(cmd, args)
	if err != nil {
		return err
	}

	clock, err := procutils.NewClock()
	if err != nil {
		return fmt.Errorf("initializing clock: %w", err)
	}

	handlers, cleanup, err := buildHandlers(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := monitor.NewRunner(cfg, monitor.NewProcSampler(clock), handlers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if traceWatchConfig {
		if traceConfigPath == "" {
			return fmt.Errorf("--watch-config requires --config")
		}
		watcher, err := config.NewWatcher(traceConfigPath)
		if err != nil {
			return err
		}
		defer func() {
			_ = watcher.Close()
		}()
		go watcher.Start(ctx)
		runner.WatchTargets(watcher.Targets())
	}

	fmt.Printf("Tracing %d target(s) every %v for %v...\n",
		len(cfg.Targets), cfg.Interval, cfg.Duration)

	if err := runner.Run(ctx); err != nil {
		return err
	}

	csvSink := handlers[0].(*output.CSVSink)
	for _, p := range runner.Tracker().Snapshot() {
		fmt.Printf("Traced %s (pid %d, comm %q): %s\n",
			p.Label, p.PID, p.Comm, csvSink.Path(p.Label))
	}
	return nil
}
