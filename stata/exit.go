package stata

// Exit code contract. These values are stable; external build tooling
// depends on them.
const (
	// ExitSuccess: script executed without errors.
	ExitSuccess = 0
	// ExitScriptError: generic Stata error detected in the log.
	ExitScriptError = 1
	// ExitSyntaxError: unrecognized command, invalid syntax.
	ExitSyntaxError = 2
	// ExitFileError: file not found, permission denied.
	ExitFileError = 3
	// ExitMemoryError: insufficient memory.
	ExitMemoryError = 4
	// ExitInternalError: stax itself failed.
	ExitInternalError = 5
	// ExitEnvironmentError: interpreter not found, config invalid.
	ExitEnvironmentError = 10
)

// ExitClassForCode maps an r() code to its exit class via the static
// table's category, with range-based fallback for unlisted codes.
// Categories without a dedicated class map to the generic script error.
func ExitClassForCode(code int) int {
	return exitClassForCategory(Describe(code).Category)
}

func exitClassForCategory(cat Category) int {
	switch cat {
	case CategorySyntax:
		return ExitSyntaxError
	case CategoryFile:
		return ExitFileError
	case CategoryMemory:
		return ExitMemoryError
	case CategorySystem:
		return ExitEnvironmentError
	default:
		return ExitScriptError
	}
}

// SignalExitCode returns the conventional 128+signal exit code for a
// subprocess terminated by signal sig. Signal termination is reported
// pass-through and never folded into the r() code space.
func SignalExitCode(sig int) int {
	return 128 + sig
}
