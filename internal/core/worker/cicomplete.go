package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hay-kot/foreman/internal/core/logging"
	"github.com/hay-kot/foreman/internal/core/queue"
	"github.com/hay-kot/foreman/internal/core/task"
)

// CICompleteHandler applies the terminal CI classification carried by a
// ci-complete item: passed finishes the task, anything else needs a human.
type CICompleteHandler struct {
	tasks *task.Repository
	log   zerolog.Logger
}

// NewCICompleteHandler creates the handler for ci-complete items.
func NewCICompleteHandler(tasks *task.Repository) *CICompleteHandler {
	return &CICompleteHandler{
		tasks: tasks,
		log:   logging.Component("handler.ci-complete"),
	}
}

// Handle implements Handler.
func (h *CICompleteHandler) Handle(ctx context.Context, item queue.Item) error {
	rec, ok := h.tasks.Read(item.TaskID)
	if !ok {
		return fmt.Errorf("ci-complete item references unknown task %s", item.TaskID)
	}

	passed := item.Verdict == queue.VerdictPassed

	summary := fmt.Sprintf("CI verdict for PR %s: %s\n", item.PR.ID, item.Verdict)
	if rec.PR != nil && rec.PR.Checks != nil {
		summary += fmt.Sprintf("checks: %d/%d passed, %d failed, %d pending\n",
			rec.PR.Checks.Passed, rec.PR.Checks.Total, rec.PR.Checks.Failed, rec.PR.Checks.Pending)
	}

	outcome := "ok"
	status := task.StatusDone
	if !passed {
		outcome = "manual"
		status = task.StatusNeedsManual
	}

	logPath, err := h.tasks.WriteLog(item.TaskID, outcome, []byte(summary))
	if err != nil {
		h.log.Error().Ctx(ctx).Err(err).Msg("write ci summary log")
	}

	if err := h.tasks.AppendRun(item.TaskID, task.RunEvent{
		Event:   task.EventCIResult,
		OK:      &passed,
		LogPath: logPath,
		Note:    string(item.Verdict),
	}); err != nil {
		return err
	}

	return h.tasks.SetStatus(item.TaskID, status, fmt.Sprintf("ci %s", item.Verdict))
}
