package procutils

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// auxv tag for the clock tick rate, see getauxval(3).
const atCLKTCK = 17

// Clock converts the clock-tick quantities found in /proc (utime, stime,
// starttime) to durations and wall-clock times. The boot time anchor is
// captured once at construction.
type Clock struct {
	bootTime time.Time
	ticks    int64
}

// NewClock captures the system boot time and clock tick rate.
//
// Boot time comes from the btime line of /proc/stat, falling back to
// sysinfo(2) uptime if that fails. The tick rate comes from the AT_CLKTCK
// auxiliary vector entry, then `getconf CLK_TCK`, then the conventional 100.
func NewClock() (*Clock, error) {
	bootTime, err := readBootTime()
	if err != nil {
		bootTime, err = sysinfoBootTime()
		if err != nil {
			return nil, fmt.Errorf("determining boot time: %w", err)
		}
	}

	return &Clock{
		bootTime: bootTime,
		ticks:    clockTicksPerSecond(),
	}, nil
}

// BootTime returns the boot time anchor used for conversions.
func (c *Clock) BootTime() time.Time {
	return c.bootTime
}

// TicksPerSecond returns the kernel clock tick rate (USER_HZ).
func (c *Clock) TicksPerSecond() int64 {
	return c.ticks
}

// TicksToSeconds converts a tick count to seconds.
func (c *Clock) TicksToSeconds(ticks uint64) float64 {
	return float64(ticks) / float64(c.ticks)
}

// TicksToDuration converts a tick count to a duration.
func (c *Clock) TicksToDuration(ticks uint64) time.Duration {
	return time.Duration(float64(ticks) / float64(c.ticks) * float64(time.Second))
}

// TicksToWallClock converts ticks-since-boot (the starttime field of
// /proc/<pid>/stat) to wall-clock time.
func (c *Clock) TicksToWallClock(ticks uint64) time.Time {
	return c.bootTime.Add(c.TicksToDuration(ticks))
}

// readBootTime reads the system boot time from the btime line of /proc/stat.
func readBootTime() (time.Time, error) {
	file, err := os.Open("/proc/stat")
	if err != nil {
		return time.Time{}, fmt.Errorf("opening /proc/stat: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "btime ") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				sec, err := strconv.ParseInt(fields[1], 10, 64)
				if err != nil {
					return time.Time{}, fmt.Errorf("parsing btime: %w", err)
				}
				return time.Unix(sec, 0), nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return time.Time{}, fmt.Errorf("reading /proc/stat: %w", err)
	}

	return time.Time{}, fmt.Errorf("btime not found in /proc/stat")
}

// sysinfoBootTime estimates boot time as now minus sysinfo(2) uptime.
// Second-granular, but close enough as a fallback anchor.
func sysinfoBootTime() (time.Time, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return time.Time{}, fmt.Errorf("sysinfo: %w", err)
	}
	return time.Now().Add(-time.Duration(info.Uptime) * time.Second), nil
}

// clockTicksPerSecond resolves USER_HZ. sysconf(_SC_CLK_TCK) is not
// reachable without cgo, so the value is taken from the process auxv,
// then getconf, then the value every mainstream kernel uses.
func clockTicksPerSecond() int64 {
	if ticks, err := auxvClockTicks("/proc/self/auxv"); err == nil && ticks > 0 {
		return ticks
	}
	if out, err := exec.Command("getconf", "CLK_TCK").Output(); err == nil {
		if ticks, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64); err == nil && ticks > 0 {
			return ticks
		}
	}
	return 100
}

// auxvClockTicks extracts the AT_CLKTCK entry from an ELF auxiliary vector.
func auxvClockTicks(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return parseAuxvClockTicks(data)
}

func parseAuxvClockTicks(data []byte) (int64, error) {
	// auxv is a sequence of (tag, value) native-endian word pairs,
	// terminated by AT_NULL.
	const wordSize = 8
	for i := 0; i+2*wordSize <= len(data); i += 2 * wordSize {
		tag := binary.NativeEndian.Uint64(data[i:])
		value := binary.NativeEndian.Uint64(data[i+wordSize:])
		if tag == 0 {
			break
		}
		if tag == atCLKTCK {
			return int64(value), nil
		}
	}
	return 0, fmt.Errorf("AT_CLKTCK not present in auxv")
}
