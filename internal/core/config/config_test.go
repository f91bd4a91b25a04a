package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "/data/foreman")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/data/foreman", "queue"), cfg.QueueDir)
	assert.Equal(t, filepath.Join("/data/foreman", "tasks"), cfg.TasksDir)
	assert.Equal(t, 5*time.Second, cfg.Worker.PollInterval.Std())
	assert.Equal(t, 5*time.Minute, cfg.Worker.CIRecheckInterval.Std())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "/data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "queue"), cfg.QueueDir)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
queue_dir: /var/lib/foreman/q
worker:
  poll_interval: 1s
  ci_recheck_interval: 30s
runner:
  commands:
    tracker: ["run-tracker", "--task"]
  ci_status: ["gh-checks"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, "/data")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/foreman/q", cfg.QueueDir)
	assert.Equal(t, filepath.Join("/data", "tasks"), cfg.TasksDir, "unset dirs fall back to data dir")
	assert.Equal(t, time.Second, cfg.Worker.PollInterval.Std())
	assert.Equal(t, 30*time.Second, cfg.Worker.CIRecheckInterval.Std())
	assert.Equal(t, []string{"gh-checks"}, cfg.Runner.CIStatus)

	argv, ok := cfg.RunCommand("tracker")
	require.True(t, ok)
	assert.Equal(t, []string{"run-tracker", "--task"}, argv)

	_, ok = cfg.RunCommand("manual")
	assert.False(t, ok)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("worker:\n  poll_interval: soon\n"), 0o644))

	_, err := Load(path, "/data")
	assert.Error(t, err)
}

func TestValidateEmptyCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runner:\n  commands:\n    tracker: []\n"), 0o644))

	_, err := Load(path, "/data")
	assert.Error(t, err)
}
