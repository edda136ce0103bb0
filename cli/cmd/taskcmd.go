package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/cli/tui"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/runtime"
	"github.com/justapithecus/stax/stata"
	"github.com/justapithecus/stax/task"
	"github.com/justapithecus/stax/types"
)

// TaskCommand executes a named task from the manifest.
func TaskCommand() *cli.Command {
	flags := append(SharedFlags(), ExecutionFlags()...)
	flags = append(flags,
		&cli.IntFlag{
			Name:    "parallel",
			Aliases: []string{"p"},
			Usage:   "Worker count for parallel groups",
			Value:   4,
		},
		&cli.BoolFlag{
			Name:  "ui",
			Usage: "Show a live progress view for parallel groups",
		},
	)

	return &cli.Command{
		Name:      "task",
		Usage:     "Run a task defined in the manifest",
		ArgsUsage: "<name>",
		Flags:     flags,
		Action:    taskAction,
	}
}

func taskAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("task takes exactly one task name", stata.ExitEnvironmentError)
	}
	name := c.Args().First()

	env, err := loadEnv(c)
	if err != nil {
		return err
	}
	if err := env.requireProject(); err != nil {
		return err
	}
	binary, err := resolveBinary(c, env)
	if err != nil {
		return err
	}
	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Tasks are developer workflows, so dev-group packages are on the
	// path alongside production ones.
	sado := isolationPath(c, env, project.GroupProduction, project.GroupDev)
	orch := newOrchestrator(c, env, binary, sado)

	engine := task.NewEngine(env.Manifest, env.Root.Dir, orch, c.Int("parallel"))
	if c.Bool("ui") {
		engine.WithParallelRunner(func(ctx context.Context, runner runtime.ScriptRunner, scripts []string, workers int) (types.BatchReport, error) {
			return tui.RunParallelWithProgress(ctx, fmt.Sprintf("task %s", name), runner, scripts, workers)
		})
	}

	batch, err := engine.Run(ctx, name)
	if err != nil && len(batch.Reports) == 0 {
		return cli.Exit(err.Error(), stata.ExitEnvironmentError)
	}
	if err != nil {
		env.Logger.Error("task failed", map[string]any{"task": name, "error": err.Error()})
	}
	env.recordBatch(batch)

	if rerr := renderer.Render(batch); rerr != nil {
		return rerr
	}
	notifyResult(ctx, c, env, batch)

	if batch.ExitCode != stata.ExitSuccess {
		return cli.Exit("", batch.ExitCode)
	}
	return nil
}
