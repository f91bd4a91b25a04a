package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hay-kot/foreman/internal/core/config"
	"github.com/hay-kot/foreman/internal/core/logging"
	"github.com/hay-kot/foreman/internal/core/queue"
	"github.com/hay-kot/foreman/internal/core/task"
	"github.com/hay-kot/foreman/pkg/executil"
)

// RunHandler executes run items: it invokes the configured automation
// command for the task's type, captures output to a log artifact, and moves
// the task to done or failed. Task types without a configured command are a
// deliberate needs_manual outcome, not an error.
type RunHandler struct {
	tasks  *task.Repository
	cfg    *config.Config
	runner executil.Runner
	log    zerolog.Logger
}

// NewRunHandler creates the handler for run items.
func NewRunHandler(tasks *task.Repository, cfg *config.Config, runner executil.Runner) *RunHandler {
	return &RunHandler{
		tasks:  tasks,
		cfg:    cfg,
		runner: runner,
		log:    logging.Component("handler.run"),
	}
}

// Handle implements Handler.
func (h *RunHandler) Handle(ctx context.Context, item queue.Item) error {
	rec, ok := h.tasks.Read(item.TaskID)
	if !ok {
		return fmt.Errorf("run item references unknown task %s", item.TaskID)
	}

	if err := h.tasks.SetStatus(item.TaskID, task.StatusExecuting, ""); err != nil {
		return err
	}
	if err := h.tasks.AppendRun(item.TaskID, task.RunEvent{
		Event: task.EventQueueStart,
		Note:  string(rec.Type),
	}); err != nil {
		return err
	}

	argv, automatable := h.cfg.RunCommand(string(rec.Type))
	if !automatable {
		return h.finishManual(item.TaskID, rec.Type)
	}

	args := append(append([]string(nil), argv[1:]...), item.TaskID)
	res, err := h.runner.Run(ctx, argv[0], args...)
	if err != nil {
		logPath, logErr := h.tasks.WriteLog(item.TaskID, "fail", []byte(err.Error()))
		if logErr != nil {
			h.log.Error().Ctx(ctx).Err(logErr).Msg("write failure log")
		}
		if err := h.appendDone(item.TaskID, false, logPath, "runner invocation failed"); err != nil {
			return err
		}
		return h.tasks.SetStatus(item.TaskID, task.StatusFailed, "runner invocation failed")
	}

	succeeded := res.ExitCode == 0
	outcome := "ok"
	status := task.StatusDone
	if !succeeded {
		outcome = "fail"
		status = task.StatusFailed
	}

	logPath, err := h.tasks.WriteLog(item.TaskID, outcome, res.Combined())
	if err != nil {
		h.log.Error().Ctx(ctx).Err(err).Msg("write run log")
	}

	if err := h.appendDone(item.TaskID, succeeded, logPath, fmt.Sprintf("exit %d", res.ExitCode)); err != nil {
		return err
	}
	return h.tasks.SetStatus(item.TaskID, status, fmt.Sprintf("exit %d", res.ExitCode))
}

// finishManual records the deliberate non-execution of a task type that has
// no safe automatic action.
func (h *RunHandler) finishManual(taskID string, typ task.Type) error {
	note := fmt.Sprintf("no automatic executor for task type %q", typ)

	logPath, err := h.tasks.WriteLog(taskID, "manual", []byte(note+"\n"))
	if err != nil {
		h.log.Error().Err(err).Str("task", taskID).Msg("write manual log")
	}

	if err := h.appendDone(taskID, false, logPath, note); err != nil {
		return err
	}
	return h.tasks.SetStatus(taskID, task.StatusNeedsManual, note)
}

func (h *RunHandler) appendDone(taskID string, ok bool, logPath, note string) error {
	return h.tasks.AppendRun(taskID, task.RunEvent{
		Event:   task.EventQueueDone,
		OK:      &ok,
		LogPath: logPath,
		Note:    note,
	})
}
