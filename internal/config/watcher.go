package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a config file and emits the new target list whenever the
// file changes. Sampling parameters are fixed for the lifetime of a run;
// only targets are hot-reloaded.
type Watcher struct {
	path    string
	fw      *fsnotify.Watcher
	targets chan []TargetSpec
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(path); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	return &Watcher{
		path:    path,
		fw:      fw,
		targets: make(chan []TargetSpec, 1),
	}, nil
}

// Targets returns the channel on which reloaded target lists are delivered.
func (w *Watcher) Targets() <-chan []TargetSpec {
	return w.targets
}

// Start watches for changes until the context is cancelled. It runs in the
// calling goroutine; callers typically invoke it with `go`.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				slog.Warn("config reload failed", "path", w.path, "error", err)
				continue
			}
			if err := cfg.Validate(); err != nil {
				slog.Warn("reloaded config invalid", "path", w.path, "error", err)
				continue
			}
			// Drop a pending update the runner has not consumed yet.
			select {
			case <-w.targets:
			default:
			}
			w.targets <- cfg.Targets
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
