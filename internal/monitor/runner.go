package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"process_trace/internal/config"
	"process_trace/procutils"
)

// Runner resolves configured targets and runs one Monitor per target.
type Runner struct {
	cfg     *config.Config
	sampler Sampler
	handler SampleHandler
	tracker *Tracker
	reload  <-chan []config.TargetSpec

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// NewRunner creates a runner for the given configuration. Records go to
// handler, typically a MultiHandler over the configured sinks.
func NewRunner(cfg *config.Config, sampler Sampler, handler SampleHandler) *Runner {
	return &Runner{
		cfg:     cfg,
		sampler: sampler,
		handler: handler,
		tracker: NewTracker(),
		active:  make(map[string]context.CancelFunc),
	}
}

// WatchTargets makes the runner apply target lists arriving on ch while a
// run is in progress. Must be called before Run.
func (r *Runner) WatchTargets(ch <-chan []config.TargetSpec) {
	r.reload = ch
}

// Tracker exposes the identities of resolved targets, including targets
// whose monitoring already finished.
func (r *Runner) Tracker() *Tracker {
	return r.tracker
}

// Run monitors every configured target until the trace duration elapses or
// the context is cancelled. A target that cannot be resolved at startup is
// an error; failures for targets added by a live reload are only logged.
func (r *Runner) Run(ctx context.Context) error {
	end := time.Now().Add(r.cfg.Duration)
	// The deadline gives the reload goroutine a moment to drain after the
	// monitors finish.
	dctx, cancel := context.WithDeadline(ctx, end.Add(time.Second))
	defer cancel()

	g, gctx := errgroup.WithContext(dctx)

	for _, spec := range r.cfg.Targets {
		if err := r.startTarget(gctx, g, spec, end); err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
	}

	if r.reload != nil {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case targets := <-r.reload:
					r.applyTargets(gctx, g, targets, end)
				}
			}
		})
	}

	return g.Wait()
}

// startTarget resolves a target and starts its monitor goroutine in g.
func (r *Runner) startTarget(ctx context.Context, g *errgroup.Group, spec config.TargetSpec, end time.Time) error {
	p, err := resolveTarget(spec)
	if err != nil {
		return err
	}
	r.tracker.Set(p)
	slog.Info("monitoring target", "target", p.Label, "pid", p.PID, "comm", p.Comm)

	mctx, mcancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.active[p.Label] = mcancel
	r.mu.Unlock()

	g.Go(func() error {
		defer func() {
			mcancel()
			r.mu.Lock()
			delete(r.active, p.Label)
			r.mu.Unlock()
		}()

		pid := p.PID
		for {
			m := New(p.Label, pid, r.cfg.Interval, time.Until(end), r.sampler, r.handler)
			err := m.Run(mctx)
			if !errors.Is(err, ErrTargetExited) {
				return err
			}
			slog.Info("target exited", "target", p.Label, "pid", pid)
			if !r.cfg.FollowRestarts || spec.Name == "" {
				return nil
			}

			next, ok := r.awaitRestart(mctx, spec, end)
			if !ok {
				return nil
			}
			pid = next.PID
			r.tracker.Set(next)
			slog.Info("target restarted", "target", p.Label, "pid", pid)
		}
	})

	return nil
}

// awaitRestart polls for a process matching spec until one appears, the
// deadline passes, or the context is cancelled.
func (r *Runner) awaitRestart(ctx context.Context, spec config.TargetSpec, end time.Time) (TrackedProcess, bool) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TrackedProcess{}, false
		case <-ticker.C:
		}
		if !time.Now().Before(end) {
			return TrackedProcess{}, false
		}
		if p, err := resolveTarget(spec); err == nil {
			return p, true
		}
	}
}

// applyTargets reconciles the running monitors against a reloaded target
// list: monitors for removed labels are cancelled, new labels are started.
func (r *Runner) applyTargets(ctx context.Context, g *errgroup.Group, targets []config.TargetSpec, end time.Time) {
	want := make(map[string]config.TargetSpec, len(targets))
	for _, spec := range targets {
		want[spec.Label()] = spec
	}

	r.mu.Lock()
	running := make(map[string]bool, len(r.active))
	var stale []context.CancelFunc
	for label, cancel := range r.active {
		running[label] = true
		if _, ok := want[label]; !ok {
			slog.Info("target removed from config", "target", label)
			stale = append(stale, cancel)
		}
	}
	r.mu.Unlock()

	for _, cancel := range stale {
		cancel()
	}
	for label, spec := range want {
		if running[label] {
			continue
		}
		if err := r.startTarget(ctx, g, spec, end); err != nil {
			slog.Warn("cannot start reloaded target", "target", label, "error", err)
		}
	}
}

// resolveTarget turns a target spec into a concrete process.
func resolveTarget(spec config.TargetSpec) (TrackedProcess, error) {
	label := spec.Label()

	if spec.PID > 0 {
		if !procutils.Alive(spec.PID) {
			return TrackedProcess{}, fmt.Errorf("target %s: no such process", label)
		}
		// Identity reads are best-effort; the PID existing is what matters.
		comm, _ := procutils.Comm(spec.PID)
		cmdline, _ := procutils.Cmdline(spec.PID)
		return TrackedProcess{
			Label:        label,
			PID:          spec.PID,
			Comm:         comm,
			Cmdline:      cmdline,
			TrackedSince: time.Now(),
		}, nil
	}

	procs, err := procutils.FindByName(spec.Name)
	if err != nil {
		return TrackedProcess{}, fmt.Errorf("target %s: %w", label, err)
	}
	switch len(procs) {
	case 0:
		return TrackedProcess{}, fmt.Errorf("target %s: no matching process", label)
	case 1:
		p := procs[0]
		return TrackedProcess{
			Label:        label,
			PID:          p.PID,
			Comm:         p.Comm,
			Cmdline:      p.Cmdline,
			TrackedSince: time.Now(),
		}, nil
	default:
		pids := make([]int, len(procs))
		for i, p := range procs {
			pids[i] = p.PID
		}
		return TrackedProcess{}, fmt.Errorf("target %s: matches %d processes (pids %v), select one by pid", label, len(procs), pids)
	}
}
