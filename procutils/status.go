package procutils

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TaskStatus holds the memory and context-switch fields of
// /proc/<pid>[/task/<tid>]/status. Memory values are in kB.
type TaskStatus struct {
	VmRSSKB                  int64
	RssAnonKB                int64
	RssFileKB                int64
	RssShmemKB               int64
	VmSwapKB                 int64
	VoluntaryCtxtSwitches    uint64
	NonvoluntaryCtxtSwitches uint64
}

// Add accumulates another status into s. Used to aggregate per-thread status
// into a whole-process view.
func (s *TaskStatus) Add(other *TaskStatus) {
	s.VmRSSKB += other.VmRSSKB
	s.RssAnonKB += other.RssAnonKB
	s.RssFileKB += other.RssFileKB
	s.RssShmemKB += other.RssShmemKB
	s.VmSwapKB += other.VmSwapKB
	s.VoluntaryCtxtSwitches += other.VoluntaryCtxtSwitches
	s.NonvoluntaryCtxtSwitches += other.NonvoluntaryCtxtSwitches
}

// ReadTaskStatus reads and parses /proc/<pid>/task/<tid>/status.
func ReadTaskStatus(pid, tid int) (*TaskStatus, error) {
	path := fmt.Sprintf("/proc/%d/task/%d/status", pid, tid)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseTaskStatus(data)
}

// ReadStatus reads and parses /proc/<pid>/status.
func ReadStatus(pid int) (*TaskStatus, error) {
	path := fmt.Sprintf("/proc/%d/status", pid)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseTaskStatus(data)
}

// ParseTaskStatus parses the contents of a status file. Fields that do not
// appear (e.g. memory fields for kernel threads) are left zero.
func ParseTaskStatus(data []byte) (*TaskStatus, error) {
	status := &TaskStatus{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		var dst any
		switch name {
		case "VmRSS":
			dst = &status.VmRSSKB
		case "RssAnon":
			dst = &status.RssAnonKB
		case "RssFile":
			dst = &status.RssFileKB
		case "RssShmem":
			dst = &status.RssShmemKB
		case "VmSwap":
			dst = &status.VmSwapKB
		case "voluntary_ctxt_switches":
			dst = &status.VoluntaryCtxtSwitches
		case "nonvoluntary_ctxt_switches":
			dst = &status.NonvoluntaryCtxtSwitches
		default:
			continue
		}

		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "kB"))
		switch dst := dst.(type) {
		case *int64:
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing status field %s: %w", name, err)
			}
			*dst = v
		case *uint64:
			v, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing status field %s: %w", name, err)
			}
			*dst = v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning status: %w", err)
	}

	return status, nil
}
