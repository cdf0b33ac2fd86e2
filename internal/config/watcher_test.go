package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "process_trace.yaml")
	if err := os.WriteFile(path, []byte("targets:\n  - name: nginx\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	if err := os.WriteFile(path, []byte("targets:\n  - name: nginx\n  - name: redis\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case targets := <-w.Targets():
		if len(targets) != 2 {
			t.Errorf("got %d targets, want 2", len(targets))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherIgnoresInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "process_trace.yaml")
	if err := os.WriteFile(path, []byte("targets:\n  - name: nginx\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Invalid: no targets. The watcher must not emit it.
	if err := os.WriteFile(path, []byte("targets: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case targets := <-w.Targets():
		t.Errorf("unexpected reload with targets %+v", targets)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestNewWatcher_MissingFile(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("NewWatcher() expected error, got nil")
	}
}
