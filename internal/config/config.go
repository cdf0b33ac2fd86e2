// Package config holds the trace run configuration, loadable from flags or
// from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default sampling parameters, matching the tool's historical behavior of
// sampling for a minute at ten-second intervals.
const (
	DefaultInterval = 10 * time.Second
	DefaultDuration = 60 * time.Second
)

// TargetSpec selects one process to monitor, either by name (exact comm
// match, falling back to a cmdline substring match) or by explicit PID.
type TargetSpec struct {
	Name string `yaml:"name,omitempty"`
	PID  int    `yaml:"pid,omitempty"`
}

// Label returns a stable identifier for the target, used in output file
// names and log records.
func (t TargetSpec) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("pid%d", t.PID)
}

// Config holds a complete trace run configuration.
type Config struct {
	// Targets are the processes to monitor.
	Targets []TargetSpec
	// Interval is the time between samples.
	Interval time.Duration
	// Duration is the total trace time per target.
	Duration time.Duration
	// OutputDir is where CSV files are written.
	OutputDir string
	// DBPath, when set, also records samples to a SQLite database.
	DBPath string
	// Live prints records to stdout as they are collected.
	Live bool
	// FollowRestarts re-resolves a named target when its process exits.
	FollowRestarts bool
}

// Default returns a Config with the default sampling parameters and no
// targets.
func Default() *Config {
	return &Config{
		Interval:  DefaultInterval,
		Duration:  DefaultDuration,
		OutputDir: ".",
	}
}

// fileConfig is the YAML form of Config. Durations are Go duration strings.
type fileConfig struct {
	Targets        []TargetSpec `yaml:"targets"`
	Interval       string       `yaml:"interval,omitempty"`
	Duration       string       `yaml:"duration,omitempty"`
	OutputDir      string       `yaml:"output_dir,omitempty"`
	DB             string       `yaml:"db,omitempty"`
	Live           bool         `yaml:"live,omitempty"`
	FollowRestarts bool         `yaml:"follow_restarts,omitempty"`
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML config contents on top of the defaults.
func Parse(data []byte) (*Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg := Default()
	cfg.Targets = fc.Targets
	cfg.DBPath = fc.DB
	cfg.Live = fc.Live
	cfg.FollowRestarts = fc.FollowRestarts
	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	if fc.Interval != "" {
		d, err := time.ParseDuration(fc.Interval)
		if err != nil {
			return nil, fmt.Errorf("parsing interval: %w", err)
		}
		cfg.Interval = d
	}
	if fc.Duration != "" {
		d, err := time.ParseDuration(fc.Duration)
		if err != nil {
			return nil, fmt.Errorf("parsing duration: %w", err)
		}
		cfg.Duration = d
	}

	return cfg, nil
}

// Validate checks the configuration for a trace run.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("no targets to monitor")
	}
	for i, t := range c.Targets {
		if t.Name == "" && t.PID <= 0 {
			return fmt.Errorf("target %d: needs a name or a pid", i)
		}
		if t.Name != "" && t.PID > 0 {
			return fmt.Errorf("target %d: name %q and pid %d are mutually exclusive", i, t.Name, t.PID)
		}
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	if c.Duration < c.Interval {
		return fmt.Errorf("duration %v is shorter than interval %v", c.Duration, c.Interval)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	return nil
}
