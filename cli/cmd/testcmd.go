package cmd

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/runtime"
	"github.com/justapithecus/stax/stata"
)

// TestCommand discovers and runs the project's test scripts.
func TestCommand() *cli.Command {
	flags := append(SharedFlags(), ExecutionFlags()...)
	flags = append(flags,
		&cli.IntFlag{
			Name:    "parallel",
			Aliases: []string{"p"},
			Usage:   "Run test scripts concurrently with N workers",
			Value:   1,
		},
	)

	return &cli.Command{
		Name:      "test",
		Usage:     "Run all test scripts (test/*.do and *_test.do)",
		ArgsUsage: "[script.do ...]",
		Flags:     flags,
		Action:    testAction,
	}
}

func testAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}
	if err := env.requireProject(); err != nil {
		return err
	}

	scripts := c.Args().Slice()
	if len(scripts) == 0 {
		scripts, err = discoverTests(env.Root.Dir)
		if err != nil {
			return cli.Exit(err.Error(), stata.ExitFileError)
		}
	}
	if len(scripts) == 0 {
		return cli.Exit("no test scripts found (expected test/*.do or *_test.do)", stata.ExitEnvironmentError)
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

	sado := isolationPath(c, env, project.GroupProduction, project.GroupTest)
	orch := newOrchestrator(c, env, binary, sado)

	// Every test runs even after a failure, unlike run's fail-fast.
	batch, err := runtime.RunParallel(ctx, orch, scripts, c.Int("parallel"))
	if err != nil {
		env.Logger.Error("test run failed", map[string]any{"error": err.Error()})
	}
	batch.Name = "test"
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

// discoverTests finds test scripts under root: anything in test/ with
// a .do extension, plus *_test.do anywhere outside the log directory.
func discoverTests(root string) ([]string, error) {
	seen := map[string]bool{}
	var scripts []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name != root && (strings.HasPrefix(name, ".") || name == "logs") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".do" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		inTestDir := strings.HasPrefix(rel, "test"+string(filepath.Separator))
		if inTestDir || strings.HasSuffix(rel, "_test.do") {
			if !seen[path] {
				seen[path] = true
				scripts = append(scripts, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(scripts)
	return scripts, nil
}
