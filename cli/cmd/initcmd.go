package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/stata"
)

// gitignoreContent covers the files a run generates. The lockfile is
// deliberately not ignored: it is the reproducibility record.
const gitignoreContent = `# Stata run artifacts
*.log
*.smcl
logs/
`

// InitCommand scaffolds a new project: stax.yaml plus a .gitignore.
// The lockfile is created on demand by install.
func InitCommand() *cli.Command {
	flags := append(SharedFlags(),
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Overwrite existing project files",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Project name (default: directory name)",
		},
	)

	return &cli.Command{
		Name:      "init",
		Usage:     "Initialize a new stax project",
		ArgsUsage: "[path]",
		Flags:     flags,
		Action:    initAction,
	}
}

// initReport is the renderable record of a scaffold.
type initReport struct {
	Path    string   `json:"path"`
	Created []string `json:"created"`
}

func initAction(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = cwd
	}

	report, err := scaffoldProject(dir, c.String("name"), c.Bool("force"))
	if err != nil {
		return cli.Exit(err.Error(), stata.ExitEnvironmentError)
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return renderer.Render(report)
}

// scaffoldProject writes stax.yaml and .gitignore into dir, creating
// dir when needed. Existing project markers abort unless force is set.
func scaffoldProject(dir, name string, force bool) (initReport, error) {
	report := initReport{Path: dir}

	if !force && hasProjectMarkers(dir) {
		return report, fmt.Errorf("project already exists at %s (stax.yaml or stax.lock found; use --force to overwrite)", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return report, fmt.Errorf("cannot create %s: %w", dir, err)
	}

	if name == "" {
		name = filepath.Base(dir)
	}
	m := project.Default()
	m.Project.Name = name
	if err := m.Save(dir); err != nil {
		return report, err
	}
	report.Created = append(report.Created, project.ManifestName)

	gitignore := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignore); os.IsNotExist(err) || force {
		if err := os.WriteFile(gitignore, []byte(gitignoreContent), 0o644); err != nil {
			return report, err
		}
		report.Created = append(report.Created, ".gitignore")
	}

	return report, nil
}

func hasProjectMarkers(dir string) bool {
	for _, marker := range []string{project.ManifestName, "stax.lock"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}
