package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"process_trace/internal/monitor"
	"process_trace/procutils"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <name|pid>",
	Short: "Print a single resource sample of one process",
	Long: `Take one cumulative sample of a process and print it.

Unlike trace, counters are totals since process start, not deltas.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

// resolveSnapshotTarget turns the argument into a PID: a number is taken as
// a PID, anything else is matched by name and must be unambiguous.
func resolveSnapshotTarget(arg string) (int, error) {
	if pid, err := strconv.Atoi(arg); err == nil {
		if !procutils.Alive(pid) {
			return 0, fmt.Errorf("no such process: %d", pid)
		}
		return pid, nil
	}

	procs, err := procutils.FindByName(arg)
	if err != nil {
		return 0, err
	}
	switch len(procs) {
	case 0:
		return 0, fmt.Errorf("no process matches %q", arg)
	case 1:
		return procs[0].PID, nil
	default:
		pids := make([]int, len(procs))
		for i, p := range procs {
			pids[i] = p.PID
		}
		return 0, fmt.Errorf("%q matches %d processes (pids %v), pass a pid instead", arg, len(procs), pids)
	}
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	pid, err := resolveSnapshotTarget(args[0])
	if err != nil {
		return err
	}

	clock, err := procutils.NewClock()
	if err != nil {
		return fmt.Errorf("initializing clock: %w", err)
	}

	sample, err := monitor.NewProcSampler(clock).Sample(pid)
	if err != nil {
		return fmt.Errorf("sampling pid %d: %w", pid, err)
	}

	comm, _ := procutils.Comm(pid)
	started := clock.TicksToWallClock(sample.StartTimeTicks)

	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "pid\t%d\n", pid)
	fmt.Fprintf(tw, "comm\t%s\n", comm)
	fmt.Fprintf(tw, "started\t%s\n", started.Format(time.RFC3339))
	fmt.Fprintf(tw, "threads\t%d\n", sample.NumThreads)
	fmt.Fprintf(tw, "priority\t%d\n", sample.Priority)
	fmt.Fprintf(tw, "nice\t%d\n", sample.Nice)
	fmt.Fprintf(tw, "pss\t%d kB\n", sample.PssKB)
	fmt.Fprintf(tw, "vmRss\t%d kB\n", sample.Status.VmRSSKB)
	fmt.Fprintf(tw, "rssAnon\t%d kB\n", sample.Status.RssAnonKB)
	fmt.Fprintf(tw, "rssFile\t%d kB\n", sample.Status.RssFileKB)
	fmt.Fprintf(tw, "rssShmem\t%d kB\n", sample.Status.RssShmemKB)
	fmt.Fprintf(tw, "vmSwap\t%d kB\n", sample.Status.VmSwapKB)
	fmt.Fprintf(tw, "minflt\t%d\n", sample.MinFlt)
	fmt.Fprintf(tw, "majflt\t%d\n", sample.MajFlt)
	fmt.Fprintf(tw, "utime\t%.3fs\n", sample.UTime)
	fmt.Fprintf(tw, "stime\t%.3fs\n", sample.STime)
	fmt.Fprintf(tw, "ctxtSwitches\t%d voluntary, %d nonvoluntary\n",
		sample.Status.VoluntaryCtxtSwitches, sample.Status.NonvoluntaryCtxtSwitches)
	return tw.Flush()
}
