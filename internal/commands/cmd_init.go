package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/foreman/internal/core/queue"
)

type InitCmd struct {
	flags *Flags
}

// NewInitCmd creates a new init command
func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

// Register adds the init command to the application
func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Create the queue and tasks directories",
		UsageText: "foreman init",
		Description: `Creates the queue directory with an empty queue document and the tasks
root. Idempotent; safe to run on every deploy.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	if err := queue.NewStore(cfg.QueueDir).EnsureInitialized(); err != nil {
		return fmt.Errorf("initialize queue: %w", err)
	}
	if err := os.MkdirAll(cfg.TasksDir, 0o755); err != nil {
		return fmt.Errorf("create tasks dir: %w", err)
	}

	log.Info().Str("queue", cfg.QueueDir).Str("tasks", cfg.TasksDir).Msg("initialized")
	return nil
}
