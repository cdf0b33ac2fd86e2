package monitor

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"process_trace/internal/config"
)

func testConfig(targets ...config.TargetSpec) *config.Config {
	cfg := config.Default()
	cfg.Targets = targets
	cfg.Interval = 5 * time.Millisecond
	cfg.Duration = 30 * time.Millisecond
	return cfg
}

func TestRunnerRun_PIDTarget(t *testing.T) {
	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skip("/proc not available")
	}

	cfg := testConfig(config.TargetSpec{PID: os.Getpid()})
	sampler := &fakeSampler{}
	handler := &recordingHandler{}
	r := NewRunner(cfg, sampler, handler)

	err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, handler.recorded())

	tracked, ok := r.Tracker().Get(cfg.Targets[0].Label())
	require.True(t, ok)
	assert.Equal(t, os.Getpid(), tracked.PID)
}

func TestRunnerRun_UnresolvableTarget(t *testing.T) {
	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skip("/proc not available")
	}

	cfg := testConfig(config.TargetSpec{PID: 1 << 30})
	r := NewRunner(cfg, &fakeSampler{}, &recordingHandler{})

	err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestRunnerRun_ReloadAddsAndRemovesTargets(t *testing.T) {
	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skip("/proc not available")
	}

	cfg := testConfig(config.TargetSpec{PID: os.Getpid()})
	cfg.Duration = 150 * time.Millisecond
	sampler := &fakeSampler{}
	handler := &recordingHandler{}
	r := NewRunner(cfg, sampler, handler)

	reload := make(chan []config.TargetSpec, 1)
	r.WatchTargets(reload)

	// The reloaded list drops the original target and adds the parent
	// process instead.
	reload <- []config.TargetSpec{{PID: os.Getppid()}}

	err := r.Run(context.Background())
	require.NoError(t, err)

	_, ok := r.Tracker().Get(config.TargetSpec{PID: os.Getppid()}.Label())
	assert.True(t, ok, "reloaded target was never tracked")
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.Set(TrackedProcess{Label: "web", PID: 1})
	tr.Set(TrackedProcess{Label: "db", PID: 2})

	assert.Equal(t, []string{"db", "web"}, tr.Labels())

	p, ok := tr.Get("web")
	require.True(t, ok)
	assert.Equal(t, 1, p.PID)

	tr.Set(TrackedProcess{Label: "web", PID: 9})
	p, _ = tr.Get("web")
	assert.Equal(t, 9, p.PID)

	snapshot := tr.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "db", snapshot[0].Label)

	tr.Delete("db")
	_, ok = tr.Get("db")
	assert.False(t, ok)
}
