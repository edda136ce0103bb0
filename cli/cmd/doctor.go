package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/stata"
	"github.com/justapithecus/stax/types"
)

// DoctorCommand checks the environment for common problems.
func DoctorCommand() *cli.Command {
	flags := append(SharedFlags(), EngineFlag)

	return &cli.Command{
		Name:   "doctor",
		Usage:  "Diagnose environment and project problems",
		Flags:  flags,
		Action: doctorAction,
	}
}

func doctorAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}

	report := runDoctor(c, env)

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if rerr := renderer.Render(report); rerr != nil {
		return rerr
	}
	if !report.OK {
		return cli.Exit("", stata.ExitEnvironmentError)
	}
	return nil
}

func runDoctor(c *cli.Context, env *appEnv) types.DoctorReport {
	checks := []types.DoctorCheck{
		checkBinary(c, env),
		checkManifest(env),
		checkLock(env),
		checkCacheWritable(env),
	}

	report := types.DoctorReport{OK: true, Checks: checks}
	for _, check := range checks {
		if !check.OK {
			report.OK = false
		}
	}
	return report
}

func checkBinary(c *cli.Context, env *appEnv) types.DoctorCheck {
	binary, err := stata.DetectBinary(c.String("engine"), env.Config.Stata.Binary)
	if err != nil {
		return types.DoctorCheck{Name: "stata binary", Detail: err.Error()}
	}
	return types.DoctorCheck{Name: "stata binary", OK: true, Detail: binary}
}

func checkManifest(env *appEnv) types.DoctorCheck {
	if !env.HasProject {
		return types.DoctorCheck{Name: "manifest", Detail: "no stax.yaml found"}
	}
	return types.DoctorCheck{
		Name:   "manifest",
		OK:     true,
		Detail: fmt.Sprintf("%d packages declared", len(env.Manifest.Packages())),
	}
}

func checkLock(env *appEnv) types.DoctorCheck {
	if !env.HasProject {
		return types.DoctorCheck{Name: "lockfile", Detail: "no project"}
	}
	status := env.Lockfile.Check(env.Manifest)
	if !status.InSync() {
		return types.DoctorCheck{
			Name: "lockfile",
			Detail: fmt.Sprintf("out of sync: %d missing, %d extra, %d changed (run stax lock)",
				len(status.Missing), len(status.Extra), len(status.Changed)),
		}
	}
	return types.DoctorCheck{Name: "lockfile", OK: true, Detail: "in sync with manifest"}
}

func checkCacheWritable(env *appEnv) types.DoctorCheck {
	root := env.Store.Root()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return types.DoctorCheck{Name: "cache dir", Detail: err.Error()}
	}
	probe, err := os.CreateTemp(root, ".doctor-*")
	if err != nil {
		return types.DoctorCheck{Name: "cache dir", Detail: fmt.Sprintf("not writable: %v", err)}
	}
	probe.Close()
	os.Remove(probe.Name())
	return types.DoctorCheck{Name: "cache dir", OK: true, Detail: filepath.Clean(root)}
}
