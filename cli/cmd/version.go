package cmd

import (
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/types"
)

// Commit is the build commit SHA, set via ldflags.
var Commit = "unknown"

// versionInfo is the renderable version payload.
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// VersionCommand prints version and build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version and build information",
		Flags: SharedFlags(),
		Action: func(c *cli.Context) error {
			renderer, err := render.NewRenderer(c)
			if err != nil {
				return err
			}
			return renderer.Render(versionInfo{
				Version:   types.Version,
				Commit:    Commit,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			})
		},
	}
}
