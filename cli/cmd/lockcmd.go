package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/stata"
)

// LockCommand reconciles or verifies the lockfile.
func LockCommand() *cli.Command {
	flags := append(SharedFlags(),
		&cli.BoolFlag{
			Name:  "check",
			Usage: "Verify the lockfile matches the manifest without writing",
		},
	)

	return &cli.Command{
		Name:   "lock",
		Usage:  "Update or verify the lockfile against the manifest",
		Flags:  flags,
		Action: lockAction,
	}
}

func lockAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}
	if err := env.requireProject(); err != nil {
		return err
	}
	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("check") {
		status := env.Lockfile.Check(env.Manifest)
		report := env.Lockfile.Report(status, false)
		if err := renderer.Render(report); err != nil {
			return err
		}
		if !status.InSync() {
			return cli.Exit("", stata.ExitScriptError)
		}
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	inst := newInstaller(env)
	if _, err := inst.Sync(ctx, env.Manifest, env.Lockfile,
		project.GroupProduction, project.GroupDev, project.GroupTest); err != nil {
		return cli.Exit(fmt.Sprintf("lock failed: %v", err), stata.ExitEnvironmentError)
	}
	if err := env.Lockfile.Save(env.Root.Dir); err != nil {
		return cli.Exit(fmt.Sprintf("cannot write lockfile: %v", err), stata.ExitFileError)
	}

	status := env.Lockfile.Check(env.Manifest)
	return renderer.Render(env.Lockfile.Report(status, true))
}
