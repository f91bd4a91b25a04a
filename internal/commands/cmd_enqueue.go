package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/foreman/internal/core/queue"
	"github.com/hay-kot/foreman/internal/core/task"
)

type EnqueueCmd struct {
	flags *Flags

	// flags
	taskID    string
	itemType  string
	prID      string
	prURL     string
	verdict   string
	notBefore time.Duration
}

// NewEnqueueCmd creates a new enqueue command
func NewEnqueueCmd(flags *Flags) *EnqueueCmd {
	return &EnqueueCmd{flags: flags}
}

// Register adds the enqueue command to the application
func (cmd *EnqueueCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "enqueue",
		Usage:     "Append a work item to the queue",
		UsageText: "foreman enqueue --task <id> [--type run|ci-wait|ci-complete] [options]",
		Description: `Appends an item to the tail of the shared queue. The task record must
already exist; use 'foreman task new' to create one.

ci-wait items require --pr-id and accept --not-before to delay the first
CI check. ci-complete items require --pr-id and --verdict.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "task",
				Usage:       "task id the item belongs to",
				Required:    true,
				Destination: &cmd.taskID,
			},
			&cli.StringFlag{
				Name:        "type",
				Usage:       "item type (run, ci-wait, ci-complete)",
				Value:       string(queue.TypeRun),
				Destination: &cmd.itemType,
			},
			&cli.StringFlag{
				Name:        "pr-id",
				Usage:       "pull request id for ci-wait/ci-complete items",
				Destination: &cmd.prID,
			},
			&cli.StringFlag{
				Name:        "pr-url",
				Usage:       "pull request url",
				Destination: &cmd.prURL,
			},
			&cli.StringFlag{
				Name:        "verdict",
				Usage:       "ci verdict for ci-complete items (passed, failed)",
				Destination: &cmd.verdict,
			},
			&cli.DurationFlag{
				Name:        "not-before",
				Usage:       "delay before a ci-wait item becomes eligible",
				Destination: &cmd.notBefore,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *EnqueueCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	repo := task.NewRepository(cfg.TasksDir)
	if _, ok := repo.Read(cmd.taskID); !ok {
		return fmt.Errorf("task %s not found", cmd.taskID)
	}

	item := queue.Item{
		Type:    queue.ItemType(cmd.itemType),
		TaskID:  cmd.taskID,
		Verdict: queue.Verdict(cmd.verdict),
	}
	if cmd.prID != "" {
		item.PR = &queue.PRRef{ID: cmd.prID, URL: cmd.prURL}
	}
	if cmd.notBefore > 0 {
		at := time.Now().Add(cmd.notBefore)
		item.NextCheckAt = &at
	}

	qs := queue.NewStore(cfg.QueueDir)
	if err := qs.Enqueue(item); err != nil {
		return fmt.Errorf("enqueue item: %w", err)
	}

	log.Info().
		Str("task", cmd.taskID).
		Str("type", cmd.itemType).
		Msg("item enqueued")
	return nil
}
