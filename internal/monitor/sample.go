package monitor

import (
	"time"

	"process_trace/procutils"
)

// Sample is one cumulative observation of a process, aggregated over all of
// its threads, together with the global CPU counters taken at the same
// instant.
type Sample struct {
	// Elapsed is the time since the trace started.
	Elapsed time.Duration

	// PssKB is the proportional set size, or 0 when smaps is unavailable.
	PssKB int64
	// Status holds memory and context-switch counters summed over threads.
	Status procutils.TaskStatus

	// Fault counters summed over threads.
	MinFlt uint64
	MajFlt uint64
	// CPU seconds consumed, summed over threads.
	UTime float64
	STime float64

	// Scheduler attributes of the process (from its last-read thread).
	Priority   int64
	Nice       int64
	NumThreads int64
	// StartTimeTicks is the process start time in clock ticks since boot.
	StartTimeTicks uint64

	// Global CPU seconds from /proc/stat.
	GlobalUTime float64
	GlobalSTime float64
}

// TotalCPU returns the process CPU seconds of the sample.
func (s *Sample) TotalCPU() float64 {
	return s.UTime + s.STime
}

// GlobalTotalCPU returns the system-wide CPU seconds of the sample.
func (s *Sample) GlobalTotalCPU() float64 {
	return s.GlobalUTime + s.GlobalSTime
}

// Record is the delta between two consecutive samples. Counter fields carry
// the change over the interval; memory fields are point-in-time values from
// the newer sample.
type Record struct {
	// TimeOffset is whole seconds since the trace started.
	TimeOffset int64

	PssKB      int64
	VmRSSKB    int64
	RssAnonKB  int64
	RssFileKB  int64
	RssShmemKB int64
	VmSwapKB   int64

	VoluntaryCtxtSwitches    uint64
	NonvoluntaryCtxtSwitches uint64
	MinFlt                   uint64
	MajFlt                   uint64

	UTime              float64
	STime              float64
	TotalCPUTime       float64
	GlobalUTime        float64
	GlobalSTime        float64
	GlobalTotalCPUTime float64
	// CPUOccupancy is process CPU time over global CPU time for the
	// interval, in [0, 1] on a steady clock.
	CPUOccupancy float64

	Priority       int64
	Nice           int64
	NumThreads     int64
	StartTimeTicks uint64
}

// Delta computes the record for the interval between prev and cur.
func Delta(prev, cur *Sample) *Record {
	rec := &Record{
		TimeOffset: int64(cur.Elapsed.Round(time.Second) / time.Second),

		PssKB:      cur.PssKB,
		VmRSSKB:    cur.Status.VmRSSKB,
		RssAnonKB:  cur.Status.RssAnonKB,
		RssFileKB:  cur.Status.RssFileKB,
		RssShmemKB: cur.Status.RssShmemKB,
		VmSwapKB:   cur.Status.VmSwapKB,

		VoluntaryCtxtSwitches:    cur.Status.VoluntaryCtxtSwitches - prev.Status.VoluntaryCtxtSwitches,
		NonvoluntaryCtxtSwitches: cur.Status.NonvoluntaryCtxtSwitches - prev.Status.NonvoluntaryCtxtSwitches,
		MinFlt:                   cur.MinFlt - prev.MinFlt,
		MajFlt:                   cur.MajFlt - prev.MajFlt,

		UTime:              cur.UTime - prev.UTime,
		STime:              cur.STime - prev.STime,
		TotalCPUTime:       cur.TotalCPU() - prev.TotalCPU(),
		GlobalUTime:        cur.GlobalUTime - prev.GlobalUTime,
		GlobalSTime:        cur.GlobalSTime - prev.GlobalSTime,
		GlobalTotalCPUTime: cur.GlobalTotalCPU() - prev.GlobalTotalCPU(),

		Priority:       cur.Priority,
		Nice:           cur.Nice,
		NumThreads:     cur.NumThreads,
		StartTimeTicks: cur.StartTimeTicks,
	}

	if rec.GlobalTotalCPUTime > 0 {
		rec.CPUOccupancy = rec.TotalCPUTime / rec.GlobalTotalCPUTime
	}

	return rec
}
