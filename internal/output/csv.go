package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"process_trace/internal/monitor"
)

// csvHeader is the historical column set of resource_trace CSV files.
// Consumers parse it by name; do not reorder.
var csvHeader = []string{
	"time", "pss", "vmRss", "vmAnon", "vmFile", "vmShmem", "vmSwap",
	"voluntaryCtxtSwitches", "nonvoluntaryCtxtSwitches", "minflt", "majflt",
	"utime", "stime", "totalcputime", "gutime", "gstime", "gtotalcputime",
	"cpuOccupancyRate", "priority", "nice", "numThreads", "startTime",
}

// CSVSink writes one resource_trace_<target>.csv file per target. Files are
// created lazily on the first record and flushed after every row, so a
// trace cut short still leaves usable data behind.
type CSVSink struct {
	dir string

	mu    sync.Mutex
	files map[string]*csvFile
}

type csvFile struct {
	f *os.File
	w *csv.Writer
}

// NewCSVSink creates a sink writing into dir.
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{
		dir:   dir,
		files: make(map[string]*csvFile),
	}
}

// Path returns the CSV path used for a target.
func (s *CSVSink) Path(target string) string {
	name := strings.ReplaceAll(target, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, fmt.Sprintf("resource_trace_%s.csv", name))
}

// HandleRecord appends a record to the target's CSV file.
func (s *CSVSink) HandleRecord(target string, pid int, rec *monitor.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cf, ok := s.files[target]
	if !ok {
		f, err := os.Create(s.Path(target))
		if err != nil {
			return fmt.Errorf("creating csv for %s: %w", target, err)
		}
		w := csv.NewWriter(f)
		w.UseCRLF = true
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return fmt.Errorf("writing csv header for %s: %w", target, err)
		}
		cf = &csvFile{f: f, w: w}
		s.files[target] = cf
	}

	if err := cf.w.Write(csvRow(rec)); err != nil {
		return fmt.Errorf("writing csv row for %s: %w", target, err)
	}
	cf.w.Flush()
	if err := cf.w.Error(); err != nil {
		return fmt.Errorf("flushing csv for %s: %w", target, err)
	}
	return nil
}

// Close flushes and closes all open files.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for target, cf := range s.files {
		cf.w.Flush()
		if err := cf.w.Error(); err != nil {
			errs = append(errs, fmt.Errorf("flushing csv for %s: %w", target, err))
		}
		if err := cf.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing csv for %s: %w", target, err))
		}
	}
	s.files = make(map[string]*csvFile)
	return errors.Join(errs...)
}

func csvRow(rec *monitor.Record) []string {
	i := strconv.FormatInt
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

	return []string{
		i(rec.TimeOffset, 10),
		i(rec.PssKB, 10),
		i(rec.VmRSSKB, 10),
		i(rec.RssAnonKB, 10),
		i(rec.RssFileKB, 10),
		i(rec.RssShmemKB, 10),
		i(rec.VmSwapKB, 10),
		u(rec.VoluntaryCtxtSwitches),
		u(rec.NonvoluntaryCtxtSwitches),
		u(rec.MinFlt),
		u(rec.MajFlt),
		f(rec.UTime),
		f(rec.STime),
		f(rec.TotalCPUTime),
		f(rec.GlobalUTime),
		f(rec.GlobalSTime),
		f(rec.GlobalTotalCPUTime),
		f(rec.CPUOccupancy),
		i(rec.Priority, 10),
		i(rec.Nice, 10),
		i(rec.NumThreads, 10),
		u(rec.StartTimeTicks),
	}
}
