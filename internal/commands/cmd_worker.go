package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/foreman/internal/core/queue"
	"github.com/hay-kot/foreman/internal/core/task"
	"github.com/hay-kot/foreman/internal/core/worker"
	"github.com/hay-kot/foreman/pkg/executil"
)

type WorkerCmd struct {
	flags *Flags
}

// NewWorkerCmd creates a new worker command
func NewWorkerCmd(flags *Flags) *WorkerCmd {
	return &WorkerCmd{flags: flags}
}

// Register adds the worker command to the application
func (cmd *WorkerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "worker",
		Usage:     "Run the queue worker loop for an operating mode",
		UsageText: "foreman worker --mode run|ci",
		Description: `Acquires the single-worker lock for the mode and polls the queue until
terminated. Mode run dispatches every item type except ci-wait; mode ci
dispatches only ci-wait items whose recheck time has elapsed. One worker
per mode may run at a time; a second instance exits cleanly.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Usage:   "operating mode (run, ci)",
				Sources: cli.EnvVars("FOREMAN_MODE"),
				Value:   string(queue.ModeRun),
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WorkerCmd) run(ctx context.Context, c *cli.Command) error {
	mode := queue.Mode(c.String("mode"))
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q (expected run or ci)", c.String("mode"))
	}

	cfg := cmd.flags.Config
	qs := queue.NewStore(cfg.QueueDir)
	tasks := task.NewRepository(cfg.TasksDir)
	runner := &executil.RealRunner{}

	handlers := map[queue.ItemType]worker.Handler{
		queue.TypeRun:        worker.NewRunHandler(tasks, cfg, runner),
		queue.TypeCIWait:     worker.NewCIWaitHandler(tasks, qs, cfg, runner),
		queue.TypeCIComplete: worker.NewCICompleteHandler(tasks),
	}

	lock := worker.NewLock(qs.LockPath(mode))
	w := worker.New(mode, qs, lock, handlers, cfg.Worker.PollInterval.Std())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil {
		if errors.Is(err, worker.ErrLockHeld) {
			// Expected when another worker instance is already active.
			log.Info().Str("mode", string(mode)).Msg("another worker holds the lock, exiting")
			return nil
		}
		return fmt.Errorf("worker: %w", err)
	}

	return nil
}
