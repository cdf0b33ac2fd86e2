package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	data := `
targets:
  - name: nginx
  - pid: 1234
interval: 5s
duration: 2m
output_dir: /tmp/traces
db: traces.db
live: true
follow_restarts: true
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(cfg.Targets) != 2 {
		t.Fatalf("got %d targets, want 2", len(cfg.Targets))
	}
	if cfg.Targets[0].Name != "nginx" {
		t.Errorf("Targets[0].Name = %q, want %q", cfg.Targets[0].Name, "nginx")
	}
	if cfg.Targets[1].PID != 1234 {
		t.Errorf("Targets[1].PID = %d, want 1234", cfg.Targets[1].PID)
	}
	if cfg.Interval != 5*time.Second {
		t.Errorf("Interval = %v, want 5s", cfg.Interval)
	}
	if cfg.Duration != 2*time.Minute {
		t.Errorf("Duration = %v, want 2m", cfg.Duration)
	}
	if cfg.OutputDir != "/tmp/traces" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "/tmp/traces")
	}
	if cfg.DBPath != "traces.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "traces.db")
	}
	if !cfg.Live {
		t.Error("Live = false, want true")
	}
	if !cfg.FollowRestarts {
		t.Error("FollowRestarts = false, want true")
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("targets:\n  - name: init\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Interval != DefaultInterval {
		t.Errorf("Interval = %v, want %v", cfg.Interval, DefaultInterval)
	}
	if cfg.Duration != DefaultDuration {
		t.Errorf("Duration = %v, want %v", cfg.Duration, DefaultDuration)
	}
	if cfg.OutputDir != "." {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, ".")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "bad yaml", data: "targets: ["},
		{name: "bad interval", data: "interval: soon"},
		{name: "bad duration", data: "duration: 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() expected error, got nil")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "process_trace.yaml")
	if err := os.WriteFile(path, []byte("targets:\n  - name: sshd\ninterval: 1s\nduration: 3s\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Name != "sshd" {
		t.Errorf("Targets = %+v, want one named sshd", cfg.Targets)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() expected error, got nil")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Targets = []TargetSpec{{Name: "nginx"}}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid pid target",
			mutate: func(c *Config) { c.Targets = []TargetSpec{{PID: 42}} },
		},
		{
			name:    "no targets",
			mutate:  func(c *Config) { c.Targets = nil },
			wantErr: "no targets",
		},
		{
			name:    "empty target",
			mutate:  func(c *Config) { c.Targets = []TargetSpec{{}} },
			wantErr: "needs a name or a pid",
		},
		{
			name:    "name and pid",
			mutate:  func(c *Config) { c.Targets = []TargetSpec{{Name: "x", PID: 1}} },
			wantErr: "mutually exclusive",
		},
		{
			name:    "negative pid",
			mutate:  func(c *Config) { c.Targets = []TargetSpec{{PID: -1}} },
			wantErr: "needs a name or a pid",
		},
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.Interval = 0 },
			wantErr: "interval must be positive",
		},
		{
			name:    "duration below interval",
			mutate:  func(c *Config) { c.Duration = c.Interval / 2 },
			wantErr: "shorter than interval",
		},
		{
			name:    "empty output dir",
			mutate:  func(c *Config) { c.OutputDir = "" },
			wantErr: "output directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestTargetSpecLabel(t *testing.T) {
	if got := (TargetSpec{Name: "nginx"}).Label(); got != "nginx" {
		t.Errorf("Label() = %q, want %q", got, "nginx")
	}
	if got := (TargetSpec{PID: 42}).Label(); got != "pid42" {
		t.Errorf("Label() = %q, want %q", got, "pid42")
	}
}
