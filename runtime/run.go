package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/justapithecus/stax/log"
	"github.com/justapithecus/stax/stata"
	"github.com/justapithecus/stax/types"
)

// ScriptRunner executes one script and reports how it went.
// Batch modes depend on this narrow interface so tests can substitute
// a fake.
type ScriptRunner interface {
	Run(ctx context.Context, script string) (types.RunReport, error)
}

// Orchestrator runs Stata scripts end to end: spawn, wait, parse the
// batch log, classify.
type Orchestrator struct {
	// Binary is the resolved interpreter path.
	Binary string
	// SADO is the isolation search path, empty to inherit.
	SADO string
	// LogDir is where batch logs land. The process runs with this as
	// its working directory so Stata writes the log there.
	LogDir string
	// Timeout bounds one run, zero for none.
	Timeout time.Duration
	// Grace is the SIGTERM-to-SIGKILL window.
	Grace time.Duration
	// Args are extra interpreter arguments.
	Args []string
	// Stream tails the batch log to StreamOut while running.
	Stream    bool
	StreamOut io.Writer

	Logger *log.Logger
}

// Run executes one script. Errors are returned only for failures that
// prevent the run from starting; once the process has launched, the
// result is encoded in the report.
func (o *Orchestrator) Run(ctx context.Context, script string) (types.RunReport, error) {
	report := types.RunReport{RunID: uuid.NewString(), Script: script, ExitCode: stata.ExitInternalError}

	absScript, err := filepath.Abs(script)
	if err != nil {
		return report, err
	}
	if _, err := os.Stat(absScript); err != nil {
		report.ExitCode = stata.ExitFileError
		return report, fmt.Errorf("script not found: %s", script)
	}

	logDir := o.LogDir
	if logDir == "" {
		logDir = "."
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return report, fmt.Errorf("failed to create log directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(absScript), filepath.Ext(absScript))
	logFile := filepath.Join(logDir, stem+".log")
	// A stale log from an earlier run must never classify this one.
	_ = os.Remove(logFile)
	report.LogFile = logFile

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	proc := NewProcess(&ProcessConfig{
		Binary:  o.Binary,
		Script:  absScript,
		WorkDir: logDir,
		SADO:    o.SADO,
		Args:    o.Args,
		Grace:   o.Grace,
	})

	start := time.Now()
	if err := proc.Start(ctx); err != nil {
		report.ExitCode = stata.ExitEnvironmentError
		return report, err
	}
	o.logInfo("process started", map[string]any{"run_id": report.RunID, "script": script})

	streamDone := o.startStream(ctx, logFile)

	out, err := proc.Wait()
	if streamDone != nil {
		streamDone()
	}
	report.DurationSecs = time.Since(start).Seconds()
	if err != nil {
		return report, err
	}

	report.ExitCode, report.Errors, report.Killed = classifyRun(out, logFile)
	report.Success = report.ExitCode == stata.ExitSuccess

	o.logInfo("process finished", map[string]any{
		"run_id":    report.RunID,
		"script":    script,
		"exit_code": report.ExitCode,
		"duration":  report.DurationSecs,
	})
	return report, nil
}

// startStream launches the log follower when streaming is enabled and
// returns a function that drains the remainder and stops it.
func (o *Orchestrator) startStream(ctx context.Context, logFile string) func() {
	if !o.Stream {
		return nil
	}
	out := o.StreamOut
	if out == nil {
		out = os.Stdout
	}

	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		followLog(streamCtx, logFile, out)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (o *Orchestrator) logInfo(msg string, fields map[string]any) {
	if o.Logger != nil {
		o.Logger.Info(msg, fields)
	}
}
