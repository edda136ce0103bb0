package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// defaultGrace is how long a signaled process gets to exit before
// SIGKILL.
const defaultGrace = 5 * time.Second

// ProcessConfig configures one Stata batch invocation.
type ProcessConfig struct {
	// Binary is the resolved interpreter path.
	Binary string
	// Script is the absolute script path.
	Script string
	// WorkDir is the process working directory. Stata writes the
	// batch log as <script stem>.log into it.
	WorkDir string
	// SADO, when non-empty, replaces the ado search path.
	SADO string
	// Args are extra arguments appended after the script.
	Args []string
	// Grace bounds the SIGTERM-to-SIGKILL window on cancellation.
	// Zero means defaultGrace.
	Grace time.Duration
}

// ProcessOutcome is how a Stata process exited.
type ProcessOutcome struct {
	// ExitCode is the raw process exit code. For a signaled process
	// it is 128 plus the signal number.
	ExitCode int
	// Signal is the terminating signal number, 0 when none.
	Signal int
	// Killed reports termination by signal.
	Killed bool
}

// Process manages one Stata batch process.
type Process struct {
	config *ProcessConfig
	cmd    *exec.Cmd
}

// NewProcess creates a process manager.
func NewProcess(config *ProcessConfig) *Process {
	return &Process{config: config}
}

// Start launches the interpreter in batch mode. Output goes to the
// batch log Stata writes itself; stdout and stderr are discarded.
// Cancelling ctx sends SIGTERM, escalating to SIGKILL after the grace
// window.
func (p *Process) Start(ctx context.Context) error {
	args := append([]string{"-e", "do", p.config.Script}, p.config.Args...)
	p.cmd = exec.CommandContext(ctx, p.config.Binary, args...)
	p.cmd.Dir = p.config.WorkDir
	p.cmd.Stdout = io.Discard
	p.cmd.Stderr = io.Discard

	if p.config.SADO != "" {
		p.cmd.Env = deduplicateEnv(append(os.Environ(), "S_ADO="+p.config.SADO))
	}

	p.cmd.Cancel = func() error {
		return p.cmd.Process.Signal(syscall.SIGTERM)
	}
	grace := p.config.Grace
	if grace == 0 {
		grace = defaultGrace
	}
	p.cmd.WaitDelay = grace

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", p.config.Binary, err)
	}
	return nil
}

// Wait blocks until the process exits.
func (p *Process) Wait() (ProcessOutcome, error) {
	if p.cmd == nil {
		return ProcessOutcome{}, errors.New("process not started")
	}

	err := p.cmd.Wait()
	if err == nil {
		return ProcessOutcome{}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				sig := int(status.Signal())
				return ProcessOutcome{ExitCode: 128 + sig, Signal: sig, Killed: true}, nil
			}
			return ProcessOutcome{ExitCode: status.ExitStatus()}, nil
		}
		return ProcessOutcome{ExitCode: -1}, nil
	}
	return ProcessOutcome{}, fmt.Errorf("wait failed: %w", err)
}

// Kill terminates the process immediately.
func (p *Process) Kill() error {
	if p.cmd != nil && p.cmd.Process != nil {
		return p.cmd.Process.Kill()
	}
	return nil
}

// deduplicateEnv keeps the last occurrence of each key, so appended
// overrides win over inherited duplicates.
func deduplicateEnv(env []string) []string {
	seen := make(map[string]int, len(env))
	for i, entry := range env {
		key, _, _ := strings.Cut(entry, "=")
		seen[key] = i
	}
	result := make([]string, 0, len(seen))
	for i, entry := range env {
		key, _, _ := strings.Cut(entry, "=")
		if seen[key] == i {
			result = append(result, entry)
		}
	}
	return result
}
