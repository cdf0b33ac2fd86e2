package procutils

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Process identifies a running process found by a /proc scan.
type Process struct {
	PID     int
	Comm    string
	Cmdline string
}

// Alive reports whether a process directory exists for pid.
func Alive(pid int) bool {
	info, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	return err == nil && info.IsDir()
}

// Tasks lists the thread IDs of a process from /proc/<pid>/task.
func Tasks(pid int) ([]int, error) {
	path := fmt.Sprintf("/proc/%d/task", pid)
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}

	tids := make([]int, 0, len(entries))
	for _, entry := range entries {
		tid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		tids = append(tids, tid)
	}
	return tids, nil
}

// Comm returns the short command name of a process, without the trailing
// newline /proc/<pid>/comm carries.
func Comm(pid int) (string, error) {
	path := fmt.Sprintf("/proc/%d/comm", pid)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Cmdline returns the full command line of a process with NUL separators
// replaced by spaces. Kernel threads have an empty cmdline.
func Cmdline(pid int) (string, error) {
	path := fmt.Sprintf("/proc/%d/cmdline", pid)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(bytes.TrimRight(bytes.ReplaceAll(data, []byte{0}, []byte{' '}), " ")), nil
}

// FindByName scans /proc for processes matching name: an exact match on
// comm, or failing that a substring match on the command line. The calling
// process itself is never returned.
func FindByName(name string) ([]Process, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("listing /proc: %w", err)
	}

	self := os.Getpid()
	var exact, loose []Process
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid == self {
			continue
		}

		// Processes may exit between the dir listing and these reads.
		comm, err := Comm(pid)
		if err != nil {
			continue
		}
		cmdline, err := Cmdline(pid)
		if err != nil {
			continue
		}

		p := Process{PID: pid, Comm: comm, Cmdline: cmdline}
		switch {
		case comm == name:
			exact = append(exact, p)
		case cmdline != "" && strings.Contains(cmdline, name):
			loose = append(loose, p)
		}
	}

	if len(exact) > 0 {
		return exact, nil
	}
	return loose, nil
}
