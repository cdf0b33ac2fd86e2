// Package procutils reads per-process and system-wide state from the Linux
// /proc filesystem.
//
// It provides parsers for /proc/<pid>/stat, /proc/<pid>/status and
// /proc/<pid>/smaps, thread enumeration under /proc/<pid>/task, process
// lookup by name, and clock-tick to wall-clock conversion anchored at the
// system boot time.
//
// All Read* functions hit /proc directly; the corresponding Parse* functions
// accept raw file contents so callers can parse captured data.
package procutils
