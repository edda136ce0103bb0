// Package main provides the stax CLI entrypoint.
//
// Usage:
//
//	stax <command> [subcommand] [options]
//
// Exit codes for execution commands follow the Stata error taxonomy:
//   - 0: success
//   - 1: generic script error
//   - 2: syntax error
//   - 3: file I/O error
//   - 4: memory error
//   - 5: internal error
//   - 10: environment error (binary missing, bad config)
//   - 128+N: script killed by signal N
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/cmd"
	"github.com/justapithecus/stax/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	cmd.Commit = commit

	app := &cli.App{
		Name:           "stax",
		Usage:          "Reproducible Stata runs and package management",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.RunCommand(),
			cmd.TaskCommand(),
			cmd.TestCommand(),
			cmd.BenchCommand(),
			cmd.AddCommand(),
			cmd.RemoveCommand(),
			cmd.InstallCommand(),
			cmd.UpdateCommand(),
			cmd.OutdatedCommand(),
			cmd.ListCommand(),
			cmd.LockCommand(),
			cmd.DepsCommand(),
			cmd.CacheCommand(),
			cmd.EnvCommand(),
			cmd.DoctorCommand(),
			cmd.ExplainCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() so the process
// exit status matches the classified script outcome.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
