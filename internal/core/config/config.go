// Package config handles configuration loading and validation for foreman.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use values like "5s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// WorkerConfig tunes the worker loop.
type WorkerConfig struct {
	// PollInterval is the sleep between empty polls.
	PollInterval Duration `yaml:"poll_interval"`
	// CIRecheckInterval is how far in the future a still-running CI check
	// is re-enqueued.
	CIRecheckInterval Duration `yaml:"ci_recheck_interval"`
}

// RunnerConfig names the external commands the stage handlers invoke.
type RunnerConfig struct {
	// Commands maps a task type to the argv that executes it; the task id
	// is appended as the final argument. Task types without an entry have
	// no automatic executor and end in needs_manual.
	Commands map[string][]string `yaml:"commands"`

	// CIStatus is the argv that fetches check counts for a PR; the PR id
	// is appended as the final argument. It must print a JSON object with
	// total/passed/failed/pending counts on stdout.
	CIStatus []string `yaml:"ci_status"`
}

// Config holds the application configuration.
type Config struct {
	QueueDir string       `yaml:"queue_dir"`
	TasksDir string       `yaml:"tasks_dir"`
	Worker   WorkerConfig `yaml:"worker"`
	Runner   RunnerConfig `yaml:"runner"`

	DataDir string `yaml:"-"` // set by caller, not from config file
}

// DefaultConfig returns a Config with sensible defaults. Directory defaults
// are resolved against the data dir in applyDefaults because they depend on
// the caller-provided value.
func DefaultConfig() Config {
	return Config{
		Worker: WorkerConfig{
			PollInterval:      Duration(5 * time.Second),
			CIRecheckInterval: Duration(5 * time.Minute),
		},
		Runner: RunnerConfig{
			Commands: map[string][]string{},
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the
// provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.QueueDir == "" {
		c.QueueDir = filepath.Join(c.DataDir, "queue")
	}
	if c.TasksDir == "" {
		c.TasksDir = filepath.Join(c.DataDir, "tasks")
	}
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = defaults.Worker.PollInterval
	}
	if c.Worker.CIRecheckInterval == 0 {
		c.Worker.CIRecheckInterval = defaults.Worker.CIRecheckInterval
	}
	if c.Runner.Commands == nil {
		c.Runner.Commands = map[string][]string{}
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Worker.PollInterval.Std() <= 0 {
		return fmt.Errorf("worker.poll_interval must be positive")
	}
	if c.Worker.CIRecheckInterval.Std() <= 0 {
		return fmt.Errorf("worker.ci_recheck_interval must be positive")
	}
	for typ, argv := range c.Runner.Commands {
		if len(argv) == 0 {
			return fmt.Errorf("runner.commands.%s must not be empty", typ)
		}
	}
	return nil
}

// RunCommand returns the configured argv for a task type. The second return
// is false when the type has no automatic executor.
func (c *Config) RunCommand(taskType string) ([]string, bool) {
	argv, ok := c.Runner.Commands[taskType]
	if !ok || len(argv) == 0 {
		return nil, false
	}
	return argv, true
}
