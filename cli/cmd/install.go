package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/installer"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/stata"
)

// InstallCommand fetches every declared package into the cache and
// pins it in the lockfile.
func InstallCommand() *cli.Command {
	flags := append(SharedFlags(),
		&cli.StringSliceFlag{
			Name:  "with",
			Usage: "Also install the named groups (dev, test)",
		},
	)

	return &cli.Command{
		Name:   "install",
		Usage:  "Install declared packages and update the lockfile",
		Flags:  flags,
		Action: installAction,
	}
}

func installAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}
	if err := env.requireProject(); err != nil {
		return err
	}

	groups := []project.Group{project.GroupProduction}
	for _, raw := range c.StringSlice("with") {
		group, err := parseGroup(raw)
		if err != nil {
			return cli.Exit(err.Error(), stata.ExitEnvironmentError)
		}
		groups = append(groups, group)
	}

	return syncAndReport(c, env, groups...)
}

// UpdateCommand re-resolves packages against their channels,
// ignoring existing pins.
func UpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Re-resolve packages to their newest versions",
		ArgsUsage: "[name ...]",
		Flags:     SharedFlags(),
		Action:    updateAction,
	}
}

func updateAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}
	if err := env.requireProject(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	inst := newInstaller(env)
	actions, err := inst.Update(ctx, env.Manifest, env.Lockfile, c.Args().Slice())
	if err != nil {
		return cli.Exit(fmt.Sprintf("update failed: %v", err), stata.ExitEnvironmentError)
	}
	if err := env.Lockfile.Save(env.Root.Dir); err != nil {
		return cli.Exit(fmt.Sprintf("cannot write lockfile: %v", err), stata.ExitFileError)
	}

	// Declared version pins follow the update.
	if repinManifest(env.Manifest, actions) {
		if err := env.Manifest.Save(env.Root.Dir); err != nil {
			return cli.Exit(fmt.Sprintf("cannot write manifest: %v", err), stata.ExitFileError)
		}
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return renderer.Render(actionRows(actions))
}

// repinManifest rewrites explicit manifest pins to the updated
// versions. Unpinned declarations are left alone. Reports whether
// anything changed.
func repinManifest(m *project.Manifest, actions []installer.Action) bool {
	changed := false
	for _, action := range actions {
		for _, ref := range m.Packages() {
			if ref.Name != action.Name || ref.Spec.Version == "" || ref.Spec.Version == action.Version {
				continue
			}
			m.AddPackage(ref.Name, project.PackageSpec{
				Source:  ref.Spec.Source,
				Version: action.Version,
			}, ref.Group)
			changed = true
		}
	}
	return changed
}

// OutdatedCommand reports locked packages behind their channels.
func OutdatedCommand() *cli.Command {
	return &cli.Command{
		Name:   "outdated",
		Usage:  "List packages with newer versions available",
		Flags:  SharedFlags(),
		Action: outdatedAction,
	}
}

// outdatedRow is the renderable form of an outdated entry.
type outdatedRow struct {
	Package string `json:"package"`
	Locked  string `json:"locked"`
	Latest  string `json:"latest"`
	Source  string `json:"source"`
	Pinned  bool   `json:"pinned"`
}

func outdatedAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}
	if err := env.requireProject(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	entries, err := newInstaller(env).Outdated(ctx, env.Manifest, env.Lockfile)
	if err != nil {
		return cli.Exit(fmt.Sprintf("outdated check failed: %v", err), stata.ExitEnvironmentError)
	}

	rows := make([]outdatedRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, outdatedRow{
			Package: e.Name,
			Locked:  e.Locked,
			Latest:  e.Latest,
			Source:  e.Source,
			Pinned:  e.Pinned,
		})
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return renderer.Render(rows)
}
