package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/mattn/go-isatty"

	"process_trace/internal/monitor"
)

// TableSink prints records as an aligned table. It stays silent when the
// writer is not a terminal, unless forced, so piping the CLI somewhere does
// not interleave table output with anything else.
type TableSink struct {
	mu      sync.Mutex
	tw      *tabwriter.Writer
	enabled bool
	header  bool
}

// NewTableSink creates a table sink on w. force enables output even when w
// is not a terminal.
func NewTableSink(w io.Writer, force bool) *TableSink {
	enabled := force
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		enabled = true
	}
	return &TableSink{
		tw:      tabwriter.NewWriter(w, 2, 4, 2, ' ', 0),
		enabled: enabled,
	}
}

// Enabled reports whether the sink will produce output.
func (s *TableSink) Enabled() bool {
	return s.enabled
}

// HandleRecord prints one table row.
func (s *TableSink) HandleRecord(target string, pid int, rec *monitor.Record) error {
	if !s.enabled {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.header {
		fmt.Fprintln(s.tw, "TARGET\tPID\tTIME\tPSS(kB)\tRSS(kB)\tSWAP(kB)\tMINFLT\tMAJFLT\tCPU(s)\tCPU%\tTHREADS")
		s.header = true
	}

	fmt.Fprintf(s.tw, "%s\t%d\t%ds\t%d\t%d\t%d\t%d\t%d\t%.3f\t%.1f\t%d\n",
		target, pid, rec.TimeOffset,
		rec.PssKB, rec.VmRSSKB, rec.VmSwapKB,
		rec.MinFlt, rec.MajFlt,
		rec.TotalCPUTime, rec.CPUOccupancy*100, rec.NumThreads)
	return s.tw.Flush()
}
