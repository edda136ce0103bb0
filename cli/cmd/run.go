package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/runtime"
	"github.com/justapithecus/stax/stata"
	"github.com/justapithecus/stax/types"
)

// RunCommand executes one or more do-files with locked dependencies on
// the ado path.
func RunCommand() *cli.Command {
	flags := append(SharedFlags(), ExecutionFlags()...)
	flags = append(flags,
		&cli.IntFlag{
			Name:    "parallel",
			Aliases: []string{"p"},
			Usage:   "Run scripts concurrently with N workers",
		},
		&cli.StringFlag{
			Name:    "eval",
			Aliases: []string{"e"},
			Usage:   "Run inline Stata code instead of a script",
		},
		&cli.BoolFlag{
			Name:  "stream",
			Usage: "Stream the interpreter log to stderr while running",
		},
	)

	return &cli.Command{
		Name:      "run",
		Usage:     "Execute do-files in an isolated environment",
		ArgsUsage: "<script.do> [script.do ...]",
		Flags:     flags,
		Action:    runAction,
	}
}

func runAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}

	scripts := c.Args().Slice()
	if c.String("eval") != "" {
		if len(scripts) > 0 {
			return cli.Exit("cannot combine --eval with script arguments", stata.ExitEnvironmentError)
		}
		script, cleanup, err := writeEvalScript(c.String("eval"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("cannot stage inline code: %v", err), stata.ExitInternalError)
		}
		defer cleanup()
		scripts = []string{script}
	}
	if len(scripts) == 0 {
		return cli.Exit("no scripts given (see stax run --help)", stata.ExitEnvironmentError)
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

	workers := c.Int("parallel")
	if workers == 0 {
		workers = env.Config.Run.Parallel
	}

	var batch types.BatchReport
	if workers > 1 {
		batch, err = runtime.RunParallel(ctx, orch, scripts, workers)
	} else {
		batch, err = runtime.RunSequential(ctx, orch, scripts)
	}
	if err != nil {
		env.Logger.Error("run failed", map[string]any{"error": err.Error()})
	}
	env.recordBatch(batch)

	var payload any = batch
	if len(batch.Reports) == 1 {
		payload = batch.Reports[0]
	}
	if rerr := renderer.Render(payload); rerr != nil {
		return rerr
	}
	notifyResult(ctx, c, env, payload)

	if batch.ExitCode != stata.ExitSuccess {
		return cli.Exit("", batch.ExitCode)
	}
	return nil
}

// writeEvalScript stages inline code as a temp do-file so it runs
// through the same batch-mode path as a real script.
func writeEvalScript(code string) (path string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "stax-eval-*")
	if err != nil {
		return "", nil, err
	}
	path = filepath.Join(dir, "eval.do")
	if err := os.WriteFile(path, []byte(code+"\n"), 0o644); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { os.RemoveAll(dir) }, nil
}
