package monitor

import (
	"sort"
	"sync"
	"time"
)

// TrackedProcess records the resolved identity of a monitored target.
type TrackedProcess struct {
	Label        string
	PID          int
	Comm         string
	Cmdline      string
	TrackedSince time.Time
}

// Tracker holds the identity of every target currently being monitored.
// Monitors run concurrently, so access is guarded.
type Tracker struct {
	mu    sync.RWMutex
	procs map[string]TrackedProcess
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{procs: make(map[string]TrackedProcess)}
}

// Get retrieves the tracked process for a label.
func (t *Tracker) Get(label string) (TrackedProcess, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.procs[label]
	return p, ok
}

// Set stores or replaces the tracked process for a label.
func (t *Tracker) Set(p TrackedProcess) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.procs[p.Label] = p
}

// Delete removes a label.
func (t *Tracker) Delete(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, label)
}

// Labels returns the currently tracked labels.
func (t *Tracker) Labels() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	labels := make([]string, 0, len(t.procs))
	for label := range t.procs {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Snapshot returns all tracked processes, ordered by label.
func (t *Tracker) Snapshot() []TrackedProcess {
	t.mu.RLock()
	defer t.mu.RUnlock()
	procs := make([]TrackedProcess, 0, len(t.procs))
	for _, p := range t.procs {
		procs = append(procs, p)
	}
	sort.Slice(procs, func(i, j int) bool { return procs[i].Label < procs[j].Label })
	return procs
}
