package main

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/stata"
)

func TestExitErrHandlerNilError(t *testing.T) {
	// Should not panic or exit on nil error.
	exitErrHandler(nil, nil)
}

func TestExitCoderPreservesCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"success", cli.Exit("", stata.ExitSuccess), 0},
		{"script error", cli.Exit("script failed", stata.ExitScriptError), 1},
		{"syntax error", cli.Exit("", stata.ExitSyntaxError), 2},
		{"file error", cli.Exit("", stata.ExitFileError), 3},
		{"memory error", cli.Exit("", stata.ExitMemoryError), 4},
		{"internal error", cli.Exit("", stata.ExitInternalError), 5},
		{"environment error", cli.Exit("stata not found", stata.ExitEnvironmentError), 10},
		{"sigterm pass-through", cli.Exit("", stata.SignalExitCode(15)), 143},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exitCoder cli.ExitCoder
			if !errors.As(tt.err, &exitCoder) {
				t.Fatal("error should be cli.ExitCoder")
			}
			if exitCoder.ExitCode() != tt.wantCode {
				t.Errorf("exit code = %d, want %d", exitCoder.ExitCode(), tt.wantCode)
			}
		})
	}
}

func TestWrappedExitCoderStillMatches(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), cli.Exit("inner error", 42))

	var exitCoder cli.ExitCoder
	if !errors.As(wrapped, &exitCoder) {
		t.Fatal("wrapped error should still match cli.ExitCoder")
	}
	if exitCoder.ExitCode() != 42 {
		t.Errorf("exit code = %d, want 42", exitCoder.ExitCode())
	}
}

func TestRegularErrorIsNotExitCoder(t *testing.T) {
	err := errors.New("regular error")

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		t.Fatal("regular error should not be cli.ExitCoder")
	}
}

func TestEmptyMessageSuppression(t *testing.T) {
	// cli.Exit("", N).Error() is "" or "exit status N"; the handler
	// must not print either to stderr.
	err := cli.Exit("", 0)
	msg := err.Error()
	if msg != "" && msg != "exit status 0" {
		t.Errorf("expected empty or 'exit status 0', got %q", msg)
	}
}
