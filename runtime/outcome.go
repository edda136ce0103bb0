package runtime

import (
	"github.com/justapithecus/stax/stata"
	"github.com/justapithecus/stax/types"
)

// classifyRun turns a process outcome plus its batch log into the final
// exit contract.
//
// The subprocess exit status is authoritative only for signal
// termination. For a normal exit, successful or not, the log is the
// source of truth: Stata batch mode reports success even when the
// script aborted with an error.
func classifyRun(out ProcessOutcome, logPath string) (exitCode int, errs []types.ErrorOccurrence, killed bool) {
	if out.Killed {
		// Partial logs still carry useful context when parseable.
		if det, err := stata.ParseLogFile(logPath); err == nil {
			errs = det.Errors
		}
		return stata.SignalExitCode(out.Signal), errs, true
	}

	det, err := stata.ParseLogFile(logPath)
	if err != nil {
		// Process exited but produced no readable log. The interpreter
		// never entered batch mode.
		return stata.ExitEnvironmentError, nil, false
	}
	if !det.Complete {
		return stata.ExitScriptError, nil, false
	}
	return det.ExitCode(), det.Errors, false
}
