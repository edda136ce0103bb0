package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/installer"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/source"
	"github.com/justapithecus/stax/stata"
)

// AddCommand declares a package in the manifest and installs it.
func AddCommand() *cli.Command {
	flags := append(SharedFlags(),
		&cli.StringFlag{
			Name:  "source",
			Usage: "Package channel: ssc, github:owner/repo, path:dir, s3://bucket/prefix",
			Value: "ssc",
		},
		&cli.StringFlag{
			Name:  "version",
			Usage: "Pin to an exact version",
		},
		&cli.StringFlag{
			Name:  "group",
			Usage: "Dependency group: production, dev, test",
			Value: string(project.GroupProduction),
		},
		&cli.BoolFlag{
			Name:  "no-install",
			Usage: "Only edit the manifest, do not fetch",
		},
	)

	return &cli.Command{
		Name:      "add",
		Usage:     "Declare a package dependency and install it",
		ArgsUsage: "<name>",
		Flags:     flags,
		Action:    addAction,
	}
}

func addAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("add takes exactly one package name", stata.ExitEnvironmentError)
	}
	name := c.Args().First()

	env, err := loadEnv(c)
	if err != nil {
		return err
	}
	group, err := parseGroup(c.String("group"))
	if err != nil {
		return cli.Exit(err.Error(), stata.ExitEnvironmentError)
	}
	if _, err := source.ParseSpec(c.String("source")); err != nil {
		return cli.Exit(err.Error(), stata.ExitEnvironmentError)
	}

	env.Manifest.AddPackage(name, project.PackageSpec{
		Source:  c.String("source"),
		Version: c.String("version"),
	}, group)
	if err := env.Manifest.Save(env.Root.Dir); err != nil {
		return cli.Exit(fmt.Sprintf("cannot write manifest: %v", err), stata.ExitFileError)
	}

	if c.Bool("no-install") {
		return nil
	}
	return syncAndReport(c, env, project.GroupProduction, project.GroupDev, project.GroupTest)
}

// RemoveCommand drops a package from the manifest and lockfile.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a package dependency",
		ArgsUsage: "<name>",
		Flags:     SharedFlags(),
		Action:    removeAction,
	}
}

func removeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("remove takes exactly one package name", stata.ExitEnvironmentError)
	}
	name := c.Args().First()

	env, err := loadEnv(c)
	if err != nil {
		return err
	}
	if err := env.requireProject(); err != nil {
		return err
	}

	if _, ok := env.Manifest.RemovePackage(name); !ok {
		return cli.Exit(fmt.Sprintf("package %s is not declared in the manifest", name), stata.ExitEnvironmentError)
	}
	if err := env.Manifest.Save(env.Root.Dir); err != nil {
		return cli.Exit(fmt.Sprintf("cannot write manifest: %v", err), stata.ExitFileError)
	}

	// Sync drops the removed package from the lockfile.
	return syncAndReport(c, env, project.GroupProduction, project.GroupDev, project.GroupTest)
}

// syncAndReport reconciles cache and lockfile with the manifest, saves
// the lockfile, and renders the per-package actions.
func syncAndReport(c *cli.Context, env *appEnv, groups ...project.Group) error {
	ctx, cancel := signalContext()
	defer cancel()

	inst := newInstaller(env)
	actions, err := inst.Sync(ctx, env.Manifest, env.Lockfile, groups...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("install failed: %v", err), stata.ExitEnvironmentError)
	}
	if err := env.Lockfile.Save(env.Root.Dir); err != nil {
		return cli.Exit(fmt.Sprintf("cannot write lockfile: %v", err), stata.ExitFileError)
	}

	for _, action := range actions {
		if action.Outcome == "cached" {
			env.Metrics.IncCacheHit()
		} else {
			env.Metrics.IncCacheMiss()
			env.Metrics.IncPackageFetched()
		}
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return renderer.Render(actionRows(actions))
}

func newInstaller(env *appEnv) *installer.Installer {
	return installer.New(env.Store, source.Options{ProjectDir: env.Root.Dir}, env.Logger)
}

func parseGroup(raw string) (project.Group, error) {
	switch project.Group(raw) {
	case project.GroupProduction, project.GroupDev, project.GroupTest:
		return project.Group(raw), nil
	}
	return "", fmt.Errorf("unknown group %q (expected production, dev, or test)", raw)
}

// actionRow is the renderable form of an installer action.
type actionRow struct {
	Package string `json:"package"`
	Version string `json:"version"`
	Outcome string `json:"outcome"`
}

func actionRows(actions []installer.Action) []actionRow {
	rows := make([]actionRow, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, actionRow{Package: a.Name, Version: a.Version, Outcome: a.Outcome})
	}
	return rows
}
