package procutils

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Field positions in /proc/<pid>/stat, counting from zero across the whole
// line (pid is field 0, comm is field 1). See proc(5).
const (
	statFieldMinFlt     = 9
	statFieldMajFlt     = 11
	statFieldUTime      = 13
	statFieldSTime      = 14
	statFieldPriority   = 17
	statFieldNice       = 18
	statFieldNumThreads = 19
	statFieldStartTime  = 21
)

// TaskStat holds the scheduler and fault counters of a single task, as read
// from /proc/<pid>/task/<tid>/stat. Time values are in clock ticks; use
// Clock to convert.
type TaskStat struct {
	PID            int
	Comm           string
	State          byte
	MinFlt         uint64
	MajFlt         uint64
	UTimeTicks     uint64
	STimeTicks     uint64
	Priority       int64
	Nice           int64
	NumThreads     int64
	StartTimeTicks uint64
}

// ReadTaskStat reads and parses /proc/<pid>/task/<tid>/stat.
func ReadTaskStat(pid, tid int) (*TaskStat, error) {
	path := fmt.Sprintf("/proc/%d/task/%d/stat", pid, tid)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseTaskStat(data)
}

// ReadStat reads and parses /proc/<pid>/stat.
func ReadStat(pid int) (*TaskStat, error) {
	path := fmt.Sprintf("/proc/%d/stat", pid)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseTaskStat(data)
}

// ParseTaskStat parses the contents of a stat file.
//
// The comm field is wrapped in parentheses and may itself contain spaces or
// parentheses, so fields are located relative to the last closing paren
// rather than by splitting the whole line.
func ParseTaskStat(data []byte) (*TaskStat, error) {
	line := bytes.TrimSpace(data)

	commStart := bytes.IndexByte(line, '(')
	commEnd := bytes.LastIndexByte(line, ')')
	if commStart < 0 || commEnd < 0 || commEnd < commStart {
		return nil, fmt.Errorf("malformed stat line: no comm field")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(line[:commStart])))
	if err != nil {
		return nil, fmt.Errorf("parsing stat pid: %w", err)
	}

	// Fields after comm, starting with state at overall position 2.
	rest := strings.Fields(string(line[commEnd+1:]))
	if len(rest) <= statFieldStartTime-2 {
		return nil, fmt.Errorf("malformed stat line: %d fields after comm", len(rest))
	}

	ts := &TaskStat{
		PID:   pid,
		Comm:  string(line[commStart+1 : commEnd]),
		State: rest[0][0],
	}

	field := func(name string, pos int) (uint64, error) {
		v, err := strconv.ParseUint(rest[pos-2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing stat field %s: %w", name, err)
		}
		return v, nil
	}
	sfield := func(name string, pos int) (int64, error) {
		v, err := strconv.ParseInt(rest[pos-2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing stat field %s: %w", name, err)
		}
		return v, nil
	}

	if ts.MinFlt, err = field("minflt", statFieldMinFlt); err != nil {
		return nil, err
	}
	if ts.MajFlt, err = field("majflt", statFieldMajFlt); err != nil {
		return nil, err
	}
	if ts.UTimeTicks, err = field("utime", statFieldUTime); err != nil {
		return nil, err
	}
	if ts.STimeTicks, err = field("stime", statFieldSTime); err != nil {
		return nil, err
	}
	if ts.Priority, err = sfield("priority", statFieldPriority); err != nil {
		return nil, err
	}
	if ts.Nice, err = sfield("nice", statFieldNice); err != nil {
		return nil, err
	}
	if ts.NumThreads, err = sfield("num_threads", statFieldNumThreads); err != nil {
		return nil, err
	}
	if ts.StartTimeTicks, err = field("starttime", statFieldStartTime); err != nil {
		return nil, err
	}

	return ts, nil
}

// CPUStat holds the aggregate CPU counters from the "cpu " line of
// /proc/stat, in clock ticks.
type CPUStat struct {
	UserTicks   uint64
	SystemTicks uint64
}

// TotalTicks returns user plus system ticks.
func (c CPUStat) TotalTicks() uint64 {
	return c.UserTicks + c.SystemTicks
}

// ReadCPUStat reads and parses the aggregate CPU line of /proc/stat.
func ReadCPUStat() (*CPUStat, error) {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return nil, fmt.Errorf("reading /proc/stat: %w", err)
	}
	return ParseCPUStat(data)
}

// ParseCPUStat parses /proc/stat contents. Only the aggregate "cpu " line is
// consumed; per-CPU lines ("cpu0", "cpu1", ...) already sum into it.
func ParseCPUStat(data []byte) (*CPUStat, error) {
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "cpu "))
		// user nice system idle iowait ...
		if len(fields) < 3 {
			return nil, fmt.Errorf("malformed cpu line in /proc/stat: %q", line)
		}
		user, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing cpu user time: %w", err)
		}
		system, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing cpu system time: %w", err)
		}
		return &CPUStat{UserTicks: user, SystemTicks: system}, nil
	}
	return nil, fmt.Errorf("no cpu line in /proc/stat")
}
