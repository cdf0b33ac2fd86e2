package monitor

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"
)

// ErrTargetExited is returned by Monitor.Run when the monitored process
// disappears before the trace duration is over.
var ErrTargetExited = errors.New("target process exited")

// Monitor samples a single process at a fixed interval for a fixed duration.
type Monitor struct {
	target   string
	pid      int
	interval time.Duration
	duration time.Duration
	sampler  Sampler
	handler  SampleHandler
}

// New creates a monitor for one target process.
func New(target string, pid int, interval, duration time.Duration, sampler Sampler, handler SampleHandler) *Monitor {
	return &Monitor{
		target:   target,
		pid:      pid,
		interval: interval,
		duration: duration,
		sampler:  sampler,
		handler:  handler,
	}
}

// Run samples until the duration elapses, the context is cancelled, or the
// target exits. The first sample only primes the delta computation; every
// later sample emits one Record to the handler. Handler errors are logged,
// not fatal.
func (m *Monitor) Run(ctx context.Context) error {
	if m.duration <= 0 {
		return nil
	}

	start := time.Now()
	end := start.Add(m.duration)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var prev *Sample
	for {
		cur, err := m.sampler.Sample(m.pid)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return ErrTargetExited
			}
			return err
		}
		cur.Elapsed = time.Since(start)

		if prev != nil {
			rec := Delta(prev, cur)
			if err := m.handler.HandleRecord(m.target, m.pid, rec); err != nil {
				slog.Error("handling record", "target", m.target, "pid", m.pid, "error", err)
			}
		}
		prev = cur

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if !time.Now().Before(end) {
			return nil
		}
	}
}
