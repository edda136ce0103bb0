// Package cmd provides CLI commands for the stax binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags carried by every command.
var (
	// FormatFlag selects output format: human, json, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: human, json, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// VerboseFlag enables debug logging.
	VerboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging",
	}
)

// SharedFlags returns the flags every command carries.
func SharedFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		VerboseFlag,
	}
}

// Execution flags shared by run, task, test, and bench.
var (
	// EngineFlag overrides interpreter detection.
	EngineFlag = &cli.StringFlag{
		Name:  "engine",
		Usage: "Stata binary path or name (overrides detection)",
	}

	// TimeoutFlag bounds a single script run.
	TimeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Per-script timeout (e.g. 30m)",
	}

	// AllowGlobalFlag appends the machine-global ado directories to the
	// isolation path.
	AllowGlobalFlag = &cli.BoolFlag{
		Name:  "allow-global",
		Usage: "Allow globally installed packages alongside locked ones",
	}

	// NoIsolateFlag disables isolation entirely.
	NoIsolateFlag = &cli.BoolFlag{
		Name:  "no-isolate",
		Usage: "Run with the ambient ado path (no isolation)",
	}

	// NotifyFlag posts the result payload to a webhook.
	NotifyFlag = &cli.StringFlag{
		Name:  "notify",
		Usage: "Webhook URL to POST the JSON result to",
	}
)

// ExecutionFlags returns the flags shared by commands that spawn the
// interpreter.
func ExecutionFlags() []cli.Flag {
	return []cli.Flag{
		EngineFlag,
		TimeoutFlag,
		AllowGlobalFlag,
		NoIsolateFlag,
		NotifyFlag,
	}
}
