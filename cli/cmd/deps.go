package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/deps"
	"github.com/justapithecus/stax/stata"
)

// DepsCommand analyzes a script's include and dependency graph.
func DepsCommand() *cli.Command {
	flags := append(SharedFlags(),
		&cli.BoolFlag{
			Name:  "tree",
			Usage: "Print the full dependency tree instead of the summary",
		},
	)

	return &cli.Command{
		Name:      "deps",
		Usage:     "Analyze a script's dependency graph",
		ArgsUsage: "<script.do>",
		Flags:     flags,
		Action:    depsAction,
	}
}

func depsAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("deps takes exactly one script", stata.ExitEnvironmentError)
	}

	analysis, err := deps.NewAnalyzer().Analyze(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("deps analysis failed: %v", err), stata.ExitFileError)
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tree") && renderer.Format() == render.FormatHuman {
		return renderer.RenderDepsTree(analysis.Root)
	}
	return renderer.Render(analysis.Report())
}
