package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"process_trace/procutils"
)

// Sampler takes one cumulative sample of a process.
type Sampler interface {
	Sample(pid int) (*Sample, error)
}

// ProcSampler samples a process from /proc, aggregating over its threads.
type ProcSampler struct {
	clock *procutils.Clock
}

// NewProcSampler creates a sampler converting tick counters with the given
// clock.
func NewProcSampler(clock *procutils.Clock) *ProcSampler {
	return &ProcSampler{clock: clock}
}

// Sample reads the global CPU counters, the process PSS, and every thread's
// status and stat files. Threads that vanish between the task listing and
// the file reads are skipped; a vanished process surfaces as an error
// wrapping fs.ErrNotExist.
func (s *ProcSampler) Sample(pid int) (*Sample, error) {
	global, err := procutils.ReadCPUStat()
	if err != nil {
		return nil, err
	}

	sample := &Sample{
		GlobalUTime: s.clock.TicksToSeconds(global.UserTicks),
		GlobalSTime: s.clock.TicksToSeconds(global.SystemTicks),
	}

	pss, err := procutils.PssKB(pid)
	switch {
	case err == nil:
		sample.PssKB = pss
	case errors.Is(err, procutils.ErrNoSmaps):
		slog.Debug("smaps unavailable, reporting zero pss", "pid", pid)
	default:
		return nil, err
	}

	tids, err := procutils.Tasks(pid)
	if err != nil {
		return nil, err
	}

	sampled := 0
	for _, tid := range tids {
		status, err := procutils.ReadTaskStatus(pid, tid)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		stat, err := procutils.ReadTaskStat(pid, tid)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}

		sample.Status.Add(status)
		sample.MinFlt += stat.MinFlt
		sample.MajFlt += stat.MajFlt
		sample.UTime += s.clock.TicksToSeconds(stat.UTimeTicks)
		sample.STime += s.clock.TicksToSeconds(stat.STimeTicks)
		sample.Priority = stat.Priority
		sample.Nice = stat.Nice
		sample.NumThreads = stat.NumThreads
		sample.StartTimeTicks = stat.StartTimeTicks
		sampled++
	}

	if sampled == 0 {
		return nil, fmt.Errorf("no live threads for pid %d: %w", pid, fs.ErrNotExist)
	}

	return sample, nil
}
