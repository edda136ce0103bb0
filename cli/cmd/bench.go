package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/runtime"
	"github.com/justapithecus/stax/stata"
)

// BenchCommand times repeated executions of one script.
func BenchCommand() *cli.Command {
	flags := append(SharedFlags(), ExecutionFlags()...)
	flags = append(flags,
		&cli.IntFlag{
			Name:    "runs",
			Aliases: []string{"n"},
			Usage:   "Number of measured runs",
			Value:   5,
		},
		&cli.IntFlag{
			Name:    "warmup",
			Aliases: []string{"w"},
			Usage:   "Number of discarded warmup runs",
			Value:   1,
		},
		&cli.BoolFlag{
			Name:  "no-warmup",
			Usage: "Skip warmup runs",
		},
	)

	return &cli.Command{
		Name:      "bench",
		Usage:     "Benchmark a script over repeated runs",
		ArgsUsage: "<script.do>",
		Flags:     flags,
		Action:    benchAction,
	}
}

func benchAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("bench takes exactly one script", stata.ExitEnvironmentError)
	}
	script := c.Args().First()

	env, err := loadEnv(c)
	if err != nil {
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

	sado := isolationPath(c, env, project.GroupProduction)
	orch := newOrchestrator(c, env, binary, sado)

	config := runtime.BenchConfig{
		Warmup:   c.Int("warmup"),
		Measured: c.Int("runs"),
	}
	if c.Bool("no-warmup") {
		config.Warmup = 0
	}

	report, err := runtime.RunBench(ctx, orch, script, config)
	if err != nil {
		return cli.Exit(err.Error(), stata.ExitEnvironmentError)
	}

	if rerr := renderer.Render(report); rerr != nil {
		return rerr
	}
	notifyResult(ctx, c, env, report)

	if !report.Success {
		return cli.Exit("", stata.ExitScriptError)
	}
	return nil
}
