package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/foreman/internal/core/task"
	"github.com/hay-kot/foreman/pkg/iojson"
	"github.com/hay-kot/foreman/pkg/randid"
)

type TaskCmd struct {
	flags *Flags

	// flags
	taskType   string
	taskID     string
	jsonOutput bool
}

// NewTaskCmd creates a new task command
func NewTaskCmd(flags *Flags) *TaskCmd {
	return &TaskCmd{flags: flags}
}

// Register adds the task command and its subcommands to the application
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "task",
		Usage:     "Create and inspect task records",
		UsageText: "foreman task <new|show|ls> [options]",
		Commands: []*cli.Command{
			{
				Name:      "new",
				Usage:     "Create a new task record",
				UsageText: "foreman task new [--type tracker|manual] [--id id] <title>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "type",
						Usage:       "task type (tracker, manual)",
						Value:       string(task.TypeTracker),
						Destination: &cmd.taskType,
					},
					&cli.StringFlag{
						Name:        "id",
						Usage:       "explicit task id (generated when omitted)",
						Destination: &cmd.taskID,
					},
				},
				Action: cmd.runNew,
			},
			{
				Name:      "show",
				Usage:     "Print a task record as JSON",
				UsageText: "foreman task show <id>",
				Action:    cmd.runShow,
			},
			{
				Name:      "ls",
				Usage:     "List all task records",
				UsageText: "foreman task ls [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runLs,
			},
		},
	})

	return app
}

func (cmd *TaskCmd) runNew(ctx context.Context, c *cli.Command) error {
	title := c.Args().First()
	if title == "" {
		return fmt.Errorf("task title is required")
	}

	typ := task.Type(cmd.taskType)
	switch typ {
	case task.TypeTracker, task.TypeManual:
	default:
		return fmt.Errorf("unknown task type %q", cmd.taskType)
	}

	id := cmd.taskID
	if id == "" {
		id = "task-" + randid.Generate(8)
	}

	repo := task.NewRepository(cmd.flags.Config.TasksDir)
	rec, err := repo.Create(id, typ, title)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	log.Info().Str("task", rec.ID).Str("type", string(rec.Type)).Msg("task created")
	fmt.Fprintln(c.Root().Writer, rec.ID)
	return nil
}

func (cmd *TaskCmd) runShow(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("task id is required")
	}

	repo := task.NewRepository(cmd.flags.Config.TasksDir)
	rec, ok := repo.Read(id)
	if !ok {
		return fmt.Errorf("task %s not found", id)
	}

	return iojson.WriteWith(c.Root().Writer, os.Stderr, rec)
}

func (cmd *TaskCmd) runLs(ctx context.Context, c *cli.Command) error {
	repo := task.NewRepository(cmd.flags.Config.TasksDir)
	records, err := repo.List()
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	if len(records) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintf(os.Stderr, "No tasks found\n")
		}
		return nil
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, rec := range records {
			if err := iojson.WriteWith(out, os.Stderr, rec); err != nil {
				return fmt.Errorf("encode task: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tRUNS\tTITLE")
	for _, rec := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", rec.ID, rec.Type, rec.Status, len(rec.Runs), rec.Title)
	}
	_ = w.Flush()

	return nil
}
