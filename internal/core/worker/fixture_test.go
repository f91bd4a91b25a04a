package worker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hay-kot/foreman/internal/core/config"
	"github.com/hay-kot/foreman/internal/core/queue"
	"github.com/hay-kot/foreman/internal/core/task"
	"github.com/hay-kot/foreman/pkg/executil"
)

// fixture wires a handler test environment against a temp directory.
type fixture struct {
	cfg    *config.Config
	tasks  *task.Repository
	queue  *queue.Store
	runner *executil.RecordingRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		QueueDir: filepath.Join(dir, "queue"),
		TasksDir: filepath.Join(dir, "tasks"),
		Worker: config.WorkerConfig{
			PollInterval:      config.Duration(5 * time.Millisecond),
			CIRecheckInterval: config.Duration(5 * time.Minute),
		},
		Runner: config.RunnerConfig{
			Commands: map[string][]string{
				string(task.TypeTracker): {"run-tracker"},
			},
			CIStatus: []string{"ci-status"},
		},
		DataDir: dir,
	}

	qs := queue.NewStore(cfg.QueueDir)
	require.NoError(t, qs.EnsureInitialized())

	return &fixture{
		cfg:    cfg,
		tasks:  task.NewRepository(cfg.TasksDir),
		queue:  qs,
		runner: &executil.RecordingRunner{Results: map[string]executil.Result{}},
	}
}

func (f *fixture) createTask(t *testing.T, id string, typ task.Type) task.Record {
	t.Helper()
	rec, err := f.tasks.Create(id, typ, "")
	require.NoError(t, err)
	return rec
}

// eventNames extracts the run-history event sequence for assertions.
func eventNames(rec task.Record) []string {
	names := make([]string, 0, len(rec.Runs))
	for _, ev := range rec.Runs {
		names = append(names, ev.Event)
	}
	return names
}

// findEvent returns the first run event with the given name.
func findEvent(t *testing.T, rec task.Record, name string) task.RunEvent {
	t.Helper()
	for _, ev := range rec.Runs {
		if ev.Event == name {
			return ev
		}
	}
	t.Fatalf("no %q event in run history %v", name, eventNames(rec))
	return task.RunEvent{}
}
