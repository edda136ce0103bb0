package cmd

import (
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/stata"
)

// EnvCommand prints the resolved execution environment.
func EnvCommand() *cli.Command {
	flags := append(SharedFlags(), ExecutionFlags()...)

	return &cli.Command{
		Name:   "env",
		Usage:  "Show the resolved execution environment",
		Flags:  flags,
		Action: envAction,
	}
}

// envInfo is the renderable environment summary.
type envInfo struct {
	Binary      string `json:"binary,omitempty"`
	BinaryError string `json:"binary_error,omitempty"`
	ProjectRoot string `json:"project_root"`
	CacheDir    string `json:"cache_dir"`
	LogDir      string `json:"log_dir"`
	AdoPath     string `json:"ado_path,omitempty"`
	Packages    int    `json:"packages"`
}

func envAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}

	info := envInfo{
		ProjectRoot: env.Root.Dir,
		CacheDir:    env.Store.Root(),
		LogDir:      filepath.Join(env.Root.Dir, env.Manifest.Run.LogDir),
		AdoPath:     isolationPath(c, env, project.GroupProduction),
		Packages:    len(env.Lockfile.Packages),
	}
	if binary, err := stata.DetectBinary(c.String("engine"), env.Config.Stata.Binary); err != nil {
		info.BinaryError = err.Error()
	} else {
		info.Binary = binary
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return renderer.Render(info)
}
