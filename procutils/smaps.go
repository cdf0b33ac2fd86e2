package procutils

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// ErrNoSmaps is returned when /proc/<pid>/smaps is unavailable, either
// because the kernel was built without CONFIG_PROC_PAGE_MONITOR or because
// the caller lacks permission. Callers sampling a process may treat this as
// a zero PSS reading.
var ErrNoSmaps = errors.New("smaps not available")

// PssKB returns the proportional set size of a process in kB, summed over
// every "Pss:" line of /proc/<pid>/smaps.
func PssKB(pid int) (int64, error) {
	path := fmt.Sprintf("/proc/%d/smaps", pid)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && Alive(pid) {
			return 0, fmt.Errorf("%w: %s", ErrNoSmaps, path)
		}
		if errors.Is(err, fs.ErrPermission) {
			return 0, fmt.Errorf("%w: %s", ErrNoSmaps, path)
		}
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParsePssKB(data)
}

// ParsePssKB sums the Pss lines of smaps contents.
func ParsePssKB(data []byte) (int64, error) {
	var total int64

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Pss:") {
			continue
		}
		value := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line[len("Pss:"):]), "kB"))
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing Pss value %q: %w", value, err)
		}
		total += n
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scanning smaps: %w", err)
	}

	return total, nil
}
