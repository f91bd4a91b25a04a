package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/foreman/internal/core/cistatus"
	"github.com/hay-kot/foreman/internal/core/config"
	"github.com/hay-kot/foreman/internal/core/logging"
	"github.com/hay-kot/foreman/internal/core/queue"
	"github.com/hay-kot/foreman/internal/core/task"
	"github.com/hay-kot/foreman/pkg/executil"
)

// CIWaitHandler polls external CI for a ci-wait item's PR. A still-running
// pipeline (including a failed status invocation) re-enqueues the item with
// a future nextCheckAt; a terminal verdict hands off to a ci-complete item
// so the final status decision stays in one simple idempotent handler.
type CIWaitHandler struct {
	tasks  *task.Repository
	queue  *queue.Store
	cfg    *config.Config
	runner executil.Runner
	log    zerolog.Logger
	now    func() time.Time
}

// NewCIWaitHandler creates the handler for ci-wait items.
func NewCIWaitHandler(tasks *task.Repository, qs *queue.Store, cfg *config.Config, runner executil.Runner) *CIWaitHandler {
	return &CIWaitHandler{
		tasks:  tasks,
		queue:  qs,
		cfg:    cfg,
		runner: runner,
		log:    logging.Component("handler.ci-wait"),
		now:    time.Now,
	}
}

// Handle implements Handler.
func (h *CIWaitHandler) Handle(ctx context.Context, item queue.Item) error {
	if item.PR == nil || item.PR.ID == "" {
		// Cannot poll without an identifier; not retried.
		return h.tasks.SetStatus(item.TaskID, task.StatusNeedsManual, "ci-wait item has no pr reference")
	}

	if _, ok := h.tasks.Read(item.TaskID); !ok {
		return fmt.Errorf("ci-wait item references unknown task %s", item.TaskID)
	}

	counts, haveCounts, verdict, note := h.check(ctx, item.PR.ID)

	if err := h.updatePR(item, counts, haveCounts, verdict); err != nil {
		return err
	}
	if err := h.tasks.AppendRun(item.TaskID, task.RunEvent{
		Event: task.EventCICheck,
		Note:  note,
	}); err != nil {
		return err
	}

	if verdict == queue.VerdictRunning {
		next := h.now().Add(h.cfg.Worker.CIRecheckInterval.Std())
		if err := h.queue.Enqueue(queue.Item{
			Type:        queue.TypeCIWait,
			TaskID:      item.TaskID,
			PR:          item.PR,
			NextCheckAt: &next,
		}); err != nil {
			return err
		}
		return h.tasks.SetStatus(item.TaskID, task.StatusCIWait, note)
	}

	if err := h.tasks.SetStatus(item.TaskID, task.StatusQueued, note); err != nil {
		return err
	}
	return h.queue.Enqueue(queue.Item{
		Type:    queue.TypeCIComplete,
		TaskID:  item.TaskID,
		PR:      item.PR,
		Verdict: verdict,
	})
}

// check invokes the external status command and classifies the result.
// Every failure mode short of a terminal verdict classifies as running, so
// transient problems are absorbed by the delayed re-enqueue.
func (h *CIWaitHandler) check(ctx context.Context, prID string) (cistatus.Counts, bool, queue.Verdict, string) {
	argv := h.cfg.Runner.CIStatus
	if len(argv) == 0 {
		return cistatus.Counts{}, false, queue.VerdictRunning, "no ci status command configured"
	}

	args := append(append([]string(nil), argv[1:]...), prID)
	res, err := h.runner.Run(ctx, argv[0], args...)
	if err != nil {
		h.log.Warn().Ctx(ctx).Err(err).Str("pr", prID).Msg("ci status invocation failed")
		return cistatus.Counts{}, false, queue.VerdictRunning, "ci status invocation failed"
	}
	if res.ExitCode != 0 {
		return cistatus.Counts{}, false, queue.VerdictRunning, fmt.Sprintf("ci status command exited %d", res.ExitCode)
	}

	counts, err := cistatus.Parse(res.Stdout)
	if err != nil {
		h.log.Warn().Ctx(ctx).Err(err).Str("pr", prID).Msg("unparseable ci status output")
		return cistatus.Counts{}, false, queue.VerdictRunning, "unparseable ci status output"
	}

	verdict := cistatus.Classify(counts)
	note := fmt.Sprintf("ci %s: %d/%d passed, %d failed", verdict, counts.Passed, counts.Total, counts.Failed)
	return counts, true, verdict, note
}

// updatePR writes the latest check state onto the task's PR reference.
func (h *CIWaitHandler) updatePR(item queue.Item, counts cistatus.Counts, haveCounts bool, verdict queue.Verdict) error {
	rec, ok := h.tasks.Read(item.TaskID)
	if !ok {
		return fmt.Errorf("ci-wait item references unknown task %s", item.TaskID)
	}

	if rec.PR == nil {
		rec.PR = &task.PullRequest{ID: item.PR.ID, URL: item.PR.URL}
	}
	rec.PR.CIStatus = string(verdict)
	if haveCounts {
		rec.PR.Checks = &task.Checks{
			Total:   counts.Total,
			Passed:  counts.Passed,
			Failed:  counts.Failed,
			Pending: counts.Pending,
		}
	}
	checkedAt := h.now()
	rec.PR.LastCheckedAt = &checkedAt

	return h.tasks.Write(item.TaskID, rec)
}
