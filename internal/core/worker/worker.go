package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/foreman/internal/core/logging"
	"github.com/hay-kot/foreman/internal/core/queue"
)

// Worker is the long-lived polling loop for one operating mode. All
// collaborators are constructor-injected; the worker holds no global state.
type Worker struct {
	mode     queue.Mode
	queue    *queue.Store
	lock     *Lock
	handlers map[queue.ItemType]Handler
	poll     time.Duration
	log      zerolog.Logger
}

// New creates a worker for the given mode.
func New(mode queue.Mode, qs *queue.Store, lock *Lock, handlers map[queue.ItemType]Handler, poll time.Duration) *Worker {
	return &Worker{
		mode:     mode,
		queue:    qs,
		lock:     lock,
		handlers: handlers,
		poll:     poll,
		log:      logging.Component("worker").With().Str("mode", string(mode)).Logger(),
	}
}

// Run acquires the single-worker lock and polls the queue until ctx is
// cancelled. ErrLockHeld propagates to the caller, which treats it as the
// expected another-worker-is-active outcome. Persistence failures terminate
// the loop; an external supervisor restarts the worker.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := w.lock.Release(); err != nil {
			w.log.Error().Err(err).Msg("release worker lock")
		}
	}()

	if err := w.queue.EnsureInitialized(); err != nil {
		return err
	}

	w.log.Info().Dur("poll_interval", w.poll).Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopping")
			return nil
		default:
		}

		item, ok, err := w.queue.TakeNextEligible(w.mode)
		if err != nil {
			return fmt.Errorf("dequeue: %w", err)
		}
		if !ok {
			if !sleep(ctx, w.poll) {
				w.log.Info().Msg("worker stopping")
				return nil
			}
			continue
		}

		if err := w.dispatch(ctx, item); err != nil {
			return err
		}
	}
}

// dispatch runs one item through its handler. The running marker is cleared
// unconditionally, even when the handler fails or panics: the worker state
// document must never point at a task no longer being processed. Handler
// errors are logged, not propagated; only worker-state persistence failures
// terminate the loop.
func (w *Worker) dispatch(ctx context.Context, item queue.Item) error {
	ctx = logging.WithTaskID(ctx, item.TaskID)
	ctx = logging.WithItemType(ctx, string(item.Type))

	if err := w.queue.SetRunning(w.mode, item.TaskID); err != nil {
		return err
	}

	w.log.Info().Ctx(ctx).Msg("dispatching item")
	start := time.Now()

	w.handle(ctx, item)

	w.log.Info().Ctx(ctx).Dur("elapsed", time.Since(start)).Msg("dispatch finished")

	if err := w.queue.ClearRunning(w.mode); err != nil {
		return err
	}
	return nil
}

// handle invokes the item's handler, containing both errors and panics.
func (w *Worker) handle(ctx context.Context, item queue.Item) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Ctx(ctx).Any("panic", r).Msg("handler panicked")
		}
	}()

	h, ok := w.handlers[item.Type]
	if !ok {
		w.log.Error().Ctx(ctx).Msg("no handler registered for item type")
		return
	}

	if err := h.Handle(ctx, item); err != nil {
		w.log.Error().Ctx(ctx).Err(err).Msg("handler failed")
	}
}

// sleep blocks for d or until ctx is cancelled; it reports false on
// cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
